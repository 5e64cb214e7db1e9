// Package events turns S3-style bucket notifications delivered over Kafka
// into batch resize runs.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"resize4me/internal/models"
)

// ErrNoRecords is returned for notifications that carry no object records,
// such as the s3:TestEvent sent when a notification target is configured.
var ErrNoRecords = errors.New("notification has no records")

// Notification is the subset of the S3 event format (also emitted by MinIO) we read.
type Notification struct {
	Records []Record `json:"Records"`
}

type Record struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size"`
		} `json:"object"`
	} `json:"s3"`
}

// ErrBadRecord wraps a record whose object key is empty or cannot be unescaped.
var ErrBadRecord = errors.New("bad notification record")

// ParseNotification decodes a notification and returns one ObjectRef per
// usable record. Keys arrive form-encoded and are unescaped ('+' becomes a space).
// Bad records are dropped and reported in the returned error next to the
// usable refs; the error stands alone only when no record is usable.
func ParseNotification(data []byte) ([]models.ObjectRef, error) {
	const op = "events.ParseNotification"

	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(n.Records) == 0 {
		return nil, ErrNoRecords
	}

	var (
		refs = make([]models.ObjectRef, 0, len(n.Records))
		bad  []error
	)
	for i, r := range n.Records {
		key, err := url.QueryUnescape(r.S3.Object.Key)
		if err != nil {
			bad = append(bad, fmt.Errorf("%w %d: key %q: %v", ErrBadRecord, i, r.S3.Object.Key, err))
			continue
		}
		if key == "" {
			bad = append(bad, fmt.Errorf("%w %d: no object key", ErrBadRecord, i))
			continue
		}
		refs = append(refs, models.ObjectRef{Bucket: r.S3.Bucket.Name, Key: key})
	}
	if len(bad) == 0 {
		return refs, nil
	}
	err := fmt.Errorf("%s: %w", op, errors.Join(bad...))
	if len(refs) == 0 {
		return nil, err
	}
	return refs, err
}
