package models

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedMarkerKey is the object metadata key set on every derived variant.
const ProcessedMarkerKey = "processed"

// Run modes recorded alongside each variant.
const (
	ModeSync  = "sync"
	ModeBatch = "batch"
)

// ImageAsset is an uploaded or fetched source image.
type ImageAsset struct {
	Key       string
	Extension string // normalized, lowercase, with the dot
	Body      []byte
}

// ResizeSpec is one unit of work: a target width and a resampling kernel.
type ResizeSpec struct {
	Width  int
	Filter Filter
}

// ObjectRef points at an object in a bucket.
type ObjectRef struct {
	Bucket string
	Key    string
}

// Object is a stored object read back from the backend.
type Object struct {
	Body        []byte
	ContentType string
	Metadata    map[string]string // lowercase keys, x-amz-meta- prefix stripped
}

// Manifest maps a descriptive label to a public URL.
type Manifest map[string]string

type Variant struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SourceBucket string    `db:"source_bucket" json:"source_bucket"`
	SourceKey    string    `db:"source_key" json:"source_key"`
	Bucket       string    `db:"bucket" json:"bucket"`
	Key          string    `db:"key" json:"key"`
	Width        int       `db:"width" json:"width"`
	Filter       string    `db:"filter" json:"filter"`
	URL          string    `db:"url" json:"url"`
	Mode         string    `db:"mode" json:"mode"` // sync, batch
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
