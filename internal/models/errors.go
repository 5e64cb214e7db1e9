package models

import (
	"errors"
	"fmt"
)

// ErrInvalidWidth is returned when a resize is requested with a non-positive width.
var ErrInvalidWidth = errors.New("target width must be positive")

// ConfigError reports an invalid or unreadable rules document. It is fatal at startup.
type ConfigError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// BucketUnavailableError reports a configured bucket that could not be reached or does not exist.
type BucketUnavailableError struct {
	Bucket string
	Cause  error
}

func (e *BucketUnavailableError) Error() string {
	return fmt.Sprintf("bucket %s: %v", e.Bucket, e.Cause)
}

func (e *BucketUnavailableError) Unwrap() error { return e.Cause }

// UnsupportedFormatError is returned for keys whose suffix is not jpg, jpeg or png.
type UnsupportedFormatError struct {
	Key string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("file format not supported: %s", e.Key)
}

// DecodeError wraps a failure to read image bytes.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// EncodeError wraps a failure to re-encode a resized image.
type EncodeError struct {
	Format string
	Cause  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Cause)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

// UploadError wraps a failed object write.
type UploadError struct {
	Bucket string
	Key    string
	Cause  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s/%s: %v", e.Bucket, e.Key, e.Cause)
}

func (e *UploadError) Unwrap() error { return e.Cause }
