package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// MetricsStorage implements the MetricsStorage interface for Badger
type MetricsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMetricsStorage creates a new MetricsStorage instance
func NewMetricsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MetricsStorage {
	return &MetricsStorage{
		db:     db,
		logger: logger,
	}
}

func (s *MetricsStorage) SaveLatency(record *models.LatencyRecord) error {
	if err := s.db.Store().Insert(badgerhold.NextSequence(), record); err != nil {
		return fmt.Errorf("failed to save latency record: %w", err)
	}
	return nil
}

func (s *MetricsStorage) SaveAgentUsage(record *models.AgentUsageRecord) error {
	if err := s.db.Store().Insert(badgerhold.NextSequence(), record); err != nil {
		return fmt.Errorf("failed to save agent usage record: %w", err)
	}
	return nil
}

func (s *MetricsStorage) SaveRetrieval(record *models.RetrievalRecord) error {
	if err := s.db.Store().Insert(badgerhold.NextSequence(), record); err != nil {
		return fmt.Errorf("failed to save retrieval record: %w", err)
	}
	return nil
}

func (s *MetricsStorage) SaveTokenUsage(record *models.TokenUsageRecord) error {
	if err := s.db.Store().Insert(badgerhold.NextSequence(), record); err != nil {
		return fmt.Errorf("failed to save token usage record: %w", err)
	}
	return nil
}

// Sweep deletes metrics records older than the cutoff across all record
// types and returns the count removed
func (s *MetricsStorage) Sweep(cutoff time.Time) (int, error) {
	removed := 0

	query := badgerhold.Where("Timestamp").Lt(cutoff)

	latencyCount, err := s.db.Store().Count(&models.LatencyRecord{}, query)
	if err != nil {
		return removed, fmt.Errorf("failed to count expired latency records: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.LatencyRecord{}, query); err != nil {
		return removed, fmt.Errorf("failed to sweep latency records: %w", err)
	}
	removed += int(latencyCount)

	usageCount, err := s.db.Store().Count(&models.AgentUsageRecord{}, query)
	if err != nil {
		return removed, fmt.Errorf("failed to count expired agent usage records: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.AgentUsageRecord{}, query); err != nil {
		return removed, fmt.Errorf("failed to sweep agent usage records: %w", err)
	}
	removed += int(usageCount)

	retrievalCount, err := s.db.Store().Count(&models.RetrievalRecord{}, query)
	if err != nil {
		return removed, fmt.Errorf("failed to count expired retrieval records: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.RetrievalRecord{}, query); err != nil {
		return removed, fmt.Errorf("failed to sweep retrieval records: %w", err)
	}
	removed += int(retrievalCount)

	tokenCount, err := s.db.Store().Count(&models.TokenUsageRecord{}, query)
	if err != nil {
		return removed, fmt.Errorf("failed to count expired token usage records: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.TokenUsageRecord{}, query); err != nil {
		return removed, fmt.Errorf("failed to sweep token usage records: %w", err)
	}
	removed += int(tokenCount)

	return removed, nil
}
