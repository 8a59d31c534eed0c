package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/models"
)

// fakeMetricsStorage records saved metrics in memory
type fakeMetricsStorage struct {
	latencies  []*models.LatencyRecord
	usages     []*models.AgentUsageRecord
	retrievals []*models.RetrievalRecord
	tokens     []*models.TokenUsageRecord
}

func (f *fakeMetricsStorage) SaveLatency(r *models.LatencyRecord) error {
	f.latencies = append(f.latencies, r)
	return nil
}

func (f *fakeMetricsStorage) SaveAgentUsage(r *models.AgentUsageRecord) error {
	f.usages = append(f.usages, r)
	return nil
}

func (f *fakeMetricsStorage) SaveRetrieval(r *models.RetrievalRecord) error {
	f.retrievals = append(f.retrievals, r)
	return nil
}

func (f *fakeMetricsStorage) SaveTokenUsage(r *models.TokenUsageRecord) error {
	f.tokens = append(f.tokens, r)
	return nil
}

func (f *fakeMetricsStorage) Sweep(cutoff time.Time) (int, error) {
	return 0, nil
}

func TestTracker_RecordsWhenEnabled(t *testing.T) {
	storage := &fakeMetricsStorage{}
	tracker := NewTracker(&common.MetricsConfig{Enabled: true}, storage, arbor.NewLogger())

	tracker.TrackLatency("llm_completion", models.PersonaWriter, 250*time.Millisecond, "query_abc123")
	tracker.TrackAgentUsage(models.PersonaWriter, "routed", "query_abc123")
	tracker.TrackRetrieval("coverage limits", 3, "query_abc123")
	tracker.TrackTokenUsage(models.PersonaWriter, "claude-model", 120, 80, "query_abc123")

	assert.Len(t, storage.latencies, 1)
	assert.Equal(t, "llm_completion", storage.latencies[0].Operation)
	assert.Equal(t, 250*time.Millisecond, storage.latencies[0].Latency)
	assert.Len(t, storage.usages, 1)
	assert.Equal(t, "routed", storage.usages[0].Selection)
	assert.Len(t, storage.retrievals, 1)
	assert.Equal(t, 3, storage.retrievals[0].DocumentCount)
	assert.Len(t, storage.tokens, 1)
	assert.Equal(t, 120, storage.tokens[0].PromptTokens)
}

func TestTracker_DropsWhenDisabled(t *testing.T) {
	storage := &fakeMetricsStorage{}
	tracker := NewTracker(&common.MetricsConfig{Enabled: false}, storage, arbor.NewLogger())

	tracker.TrackLatency("llm_completion", models.PersonaWriter, time.Second, "query_abc123")
	tracker.TrackAgentUsage(models.PersonaWriter, "routed", "query_abc123")

	assert.Empty(t, storage.latencies)
	assert.Empty(t, storage.usages)
}

func TestStartRetentionSweep_NoopWithoutRetention(t *testing.T) {
	tracker := NewTracker(&common.MetricsConfig{Enabled: true, RetentionDays: 0}, &fakeMetricsStorage{}, arbor.NewLogger())

	assert.NoError(t, tracker.StartRetentionSweep())
	tracker.Stop()
}

func TestStartRetentionSweep_RejectsBadSchedule(t *testing.T) {
	cfg := &common.MetricsConfig{Enabled: true, RetentionDays: 30, SweepSchedule: "not a schedule"}
	tracker := NewTracker(cfg, &fakeMetricsStorage{}, arbor.NewLogger())

	assert.Error(t, tracker.StartRetentionSweep())
}
