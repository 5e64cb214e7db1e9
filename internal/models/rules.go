package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// DestinationRule names a bucket and the width variants stored there are resized to.
type DestinationRule struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Rules is the resize configuration read from the JSON settings file.
// It is immutable after LoadRules returns.
type Rules struct {
	SourceBucket       string            `json:"source_bucket"`
	DestinationBuckets []DestinationRule `json:"destination_buckets"`

	// Bucket belongs to the single-bucket schema, which is not supported.
	Bucket string `json:"bucket,omitempty"`
}

// LoadRules reads and validates the rules document at path.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: "read file", Cause: err}
	}
	return ParseRules(path, data)
}

// ParseRules validates a rules document already in memory. path is only used in errors.
func ParseRules(path string, data []byte) (*Rules, error) {
	var r Rules
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ConfigError{Path: path, Reason: "malformed json", Cause: err}
	}
	if err := r.Validate(); err != nil {
		err.Path = path
		return nil, err
	}
	return &r, nil
}

// Validate checks the invariants of a rules document.
func (r *Rules) Validate() *ConfigError {
	if r.SourceBucket == "" {
		if r.Bucket != "" {
			return &ConfigError{Reason: "single \"bucket\" schema is not supported, use source_bucket and destination_buckets"}
		}
		return &ConfigError{Reason: "a source bucket must be configured"}
	}
	if len(r.DestinationBuckets) == 0 {
		return &ConfigError{Reason: "at least one destination bucket must be configured"}
	}
	for i, d := range r.DestinationBuckets {
		if d.Name == "" {
			return &ConfigError{Reason: fmt.Sprintf("destination bucket %d must have a name", i)}
		}
		if d.Size <= 0 {
			return &ConfigError{Reason: fmt.Sprintf("destination bucket %q must have a positive size", d.Name)}
		}
	}
	return nil
}

// Buckets returns the source bucket followed by every destination bucket, without duplicates.
func (r *Rules) Buckets() []string {
	seen := make(map[string]struct{}, len(r.DestinationBuckets)+1)
	out := make([]string, 0, len(r.DestinationBuckets)+1)
	for _, b := range append([]string{r.SourceBucket}, r.destinationNames()...) {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}

func (r *Rules) destinationNames() []string {
	names := make([]string, 0, len(r.DestinationBuckets))
	for _, d := range r.DestinationBuckets {
		names = append(names, d.Name)
	}
	return names
}
