package interfaces

import (
	"time"

	"github.com/ternarybob/parley/internal/models"
)

// MetricsTracker records query pipeline metrics. Implementations must be
// cheap and non-blocking on the query path; a disabled tracker is a no-op.
type MetricsTracker interface {
	TrackLatency(operation string, persona models.PersonaID, latency time.Duration, queryID string)
	TrackAgentUsage(persona models.PersonaID, selection string, queryID string)
	TrackRetrieval(query string, documentCount int, queryID string)
	TrackTokenUsage(persona models.PersonaID, model string, promptTokens, completionTokens int, queryID string)
}
