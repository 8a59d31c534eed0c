// Package metrics records query pipeline measurements and manages their
// retention.
package metrics

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// Tracker persists metrics records through MetricsStorage. A disabled
// tracker drops every record. Storage failures are logged and swallowed so
// metrics never break the query path.
type Tracker struct {
	config  *common.MetricsConfig
	storage interfaces.MetricsStorage
	logger  arbor.ILogger
	cron    *cron.Cron
}

// NewTracker creates a metrics tracker
func NewTracker(config *common.MetricsConfig, storage interfaces.MetricsStorage, logger arbor.ILogger) *Tracker {
	return &Tracker{
		config:  config,
		storage: storage,
		logger:  logger,
	}
}

// TrackLatency records how long a pipeline stage took
func (t *Tracker) TrackLatency(operation string, persona models.PersonaID, latency time.Duration, queryID string) {
	if !t.enabled() {
		return
	}
	record := &models.LatencyRecord{
		Timestamp: time.Now(),
		Operation: operation,
		Persona:   persona,
		Latency:   latency,
		QueryID:   queryID,
	}
	if err := t.storage.SaveLatency(record); err != nil {
		t.logger.Warn().Err(err).Str("operation", operation).Msg("Failed to save latency record")
	}
}

// TrackAgentUsage records which persona handled a query
func (t *Tracker) TrackAgentUsage(persona models.PersonaID, selection string, queryID string) {
	if !t.enabled() {
		return
	}
	record := &models.AgentUsageRecord{
		Timestamp: time.Now(),
		Persona:   persona,
		Selection: selection,
		QueryID:   queryID,
	}
	if err := t.storage.SaveAgentUsage(record); err != nil {
		t.logger.Warn().Err(err).Str("persona", string(persona)).Msg("Failed to save agent usage record")
	}
}

// TrackRetrieval records document retrieval volume for a query
func (t *Tracker) TrackRetrieval(query string, documentCount int, queryID string) {
	if !t.enabled() {
		return
	}
	record := &models.RetrievalRecord{
		Timestamp:     time.Now(),
		Query:         query,
		DocumentCount: documentCount,
		QueryID:       queryID,
	}
	if err := t.storage.SaveRetrieval(record); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to save retrieval record")
	}
}

// TrackTokenUsage records estimated token consumption for a completion
func (t *Tracker) TrackTokenUsage(persona models.PersonaID, model string, promptTokens, completionTokens int, queryID string) {
	if !t.enabled() {
		return
	}
	record := &models.TokenUsageRecord{
		Timestamp:        time.Now(),
		Persona:          persona,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		QueryID:          queryID,
	}
	if err := t.storage.SaveTokenUsage(record); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to save token usage record")
	}
}

// StartRetentionSweep schedules the periodic deletion of expired records
// on the configured cron schedule
func (t *Tracker) StartRetentionSweep() error {
	if !t.enabled() || t.config.RetentionDays <= 0 {
		return nil
	}

	t.cron = cron.New()
	_, err := t.cron.AddFunc(t.config.SweepSchedule, t.sweep)
	if err != nil {
		return err
	}
	t.cron.Start()

	t.logger.Info().
		Str("schedule", t.config.SweepSchedule).
		Int("retention_days", t.config.RetentionDays).
		Msg("Metrics retention sweep scheduled")

	return nil
}

// Stop halts the retention sweep scheduler
func (t *Tracker) Stop() {
	if t.cron != nil {
		t.cron.Stop()
	}
}

func (t *Tracker) sweep() {
	cutoff := time.Now().AddDate(0, 0, -t.config.RetentionDays)
	removed, err := t.storage.Sweep(cutoff)
	if err != nil {
		t.logger.Error().Err(err).Msg("Metrics retention sweep failed")
		return
	}
	t.logger.Info().
		Int("removed", removed).
		Str("cutoff", cutoff.Format(time.RFC3339)).
		Msg("Metrics retention sweep completed")
}

func (t *Tracker) enabled() bool {
	return t.config.Enabled && t.storage != nil
}

// NoopTracker satisfies the tracker interface while recording nothing.
// Used when metrics are disabled or storage is unavailable.
type NoopTracker struct{}

func (NoopTracker) TrackLatency(string, models.PersonaID, time.Duration, string) {}
func (NoopTracker) TrackAgentUsage(models.PersonaID, string, string)             {}
func (NoopTracker) TrackRetrieval(string, int, string)                           {}
func (NoopTracker) TrackTokenUsage(models.PersonaID, string, int, int, string)   {}
