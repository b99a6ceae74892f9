// Package idgen mints identifiers for jobs (one per job.Start), used to
// correlate verbose log lines the way the teacher's internal/util.NewReqID
// correlated request logs. Swapped to google/uuid (grounded:
// yungbote-neurobridge-backend uses google/uuid for entity IDs) instead of
// the teacher's hand-rolled crypto/rand+hex generator.
package idgen

import "github.com/google/uuid"

// New returns a new random identifier.
func New() string {
	return uuid.NewString()
}
