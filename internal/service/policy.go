package service

import (
	"strings"

	"resize4me/internal/models"
)

// SkipReason explains why a notification record was not processed.
type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipAlreadyProcessed  SkipReason = "already processed"
	SkipForeignBucket     SkipReason = "bucket not configured"
	SkipUnsupportedFormat SkipReason = "unsupported format"
	SkipUnreadable        SkipReason = "unreadable"
)

// Decision is the outcome of the idempotency check for one source object.
type Decision struct {
	Process bool
	Reason  SkipReason
}

// Check inspects stored object metadata. Objects carrying the processed
// marker are derived variants and must not be resized again.
//
// If the backend drops custom metadata the check passes every object, and a
// bucket that notifies on its own writes will loop.
func Check(metadata map[string]string) Decision {
	for k, v := range metadata {
		if strings.EqualFold(k, models.ProcessedMarkerKey) && strings.EqualFold(strings.TrimSpace(v), "true") {
			return Decision{Process: false, Reason: SkipAlreadyProcessed}
		}
	}
	return Decision{Process: true}
}

func processedMetadata() map[string]string {
	return map[string]string{models.ProcessedMarkerKey: "true"}
}
