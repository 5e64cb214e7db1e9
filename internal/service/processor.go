// Package service drives uploads and resizes against object storage.
package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"

	"resize4me/internal/imageproc"
	"resize4me/internal/models"
)

// ObjectStore is the subset of an S3-compatible backend the processor needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	Stat(ctx context.Context, bucket, key string) (map[string]string, error)
	Get(ctx context.Context, bucket, key string) (*models.Object, error)
	Put(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error
}

// Ledger records written variants. Failures are logged, never returned to callers.
type Ledger interface {
	SaveVariant(ctx context.Context, v *models.Variant) error
}

type Options struct {
	PublicBaseURL  string
	BatchSizes     []int
	Filters        []models.Filter
	DefaultFilter  models.Filter
	StorageTimeout time.Duration
}

type Processor struct {
	rules  *models.Rules
	store  ObjectStore
	ledger Ledger
	opts   Options
	log    zerolog.Logger
}

// NewProcessor wires a processor. ledger may be nil.
func NewProcessor(rules *models.Rules, store ObjectStore, ledger Ledger, opts Options, log zerolog.Logger) *Processor {
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = "https://s3.amazonaws.com"
	}
	if len(opts.BatchSizes) == 0 {
		opts.BatchSizes = []int{300, 600, 900}
	}
	if len(opts.Filters) == 0 {
		opts.Filters = models.AllFilters()
	}
	if !opts.DefaultFilter.Valid() {
		opts.DefaultFilter = models.FilterLanczos
	}
	return &Processor{rules: rules, store: store, ledger: ledger, opts: opts, log: log}
}

// VerifyBuckets probes the source and every destination bucket, stopping at the first failure.
func (p *Processor) VerifyBuckets(ctx context.Context) error {
	for _, bucket := range p.rules.Buckets() {
		cctx, cancel := p.withTimeout(ctx)
		exists, err := p.store.BucketExists(cctx, bucket)
		cancel()
		if err != nil {
			return &models.BucketUnavailableError{Bucket: bucket, Cause: err}
		}
		if !exists {
			return &models.BucketUnavailableError{Bucket: bucket, Cause: fmt.Errorf("bucket does not exist")}
		}
		p.log.Debug().Str("bucket", bucket).Msg("bucket reachable")
	}
	return nil
}

// Upload stores the original under filename in the source bucket, then one
// resized copy per destination rule under the same key. Any failure aborts.
func (p *Processor) Upload(ctx context.Context, filename string, body []byte) (models.Manifest, error) {
	ext, err := imageproc.CheckExtension(filename)
	if err != nil {
		return nil, err
	}
	asset := models.ImageAsset{Key: filename, Extension: ext, Body: body}
	contentType := imageproc.ContentType(ext)

	if err := p.put(ctx, p.rules.SourceBucket, asset.Key, asset.Body, contentType, nil); err != nil {
		return nil, err
	}
	manifest := models.Manifest{
		p.rules.SourceBucket: imageproc.PublicURL(p.opts.PublicBaseURL, p.rules.SourceBucket, asset.Key),
	}

	for _, rule := range p.rules.DestinationBuckets {
		resized, err := imageproc.Resize(asset.Body, asset.Extension, rule.Size, p.opts.DefaultFilter)
		if err != nil {
			return nil, err
		}
		if err := p.put(ctx, rule.Name, asset.Key, resized, contentType, processedMetadata()); err != nil {
			return nil, err
		}

		url := imageproc.PublicURL(p.opts.PublicBaseURL, rule.Name, asset.Key)
		manifest[imageproc.SizeLabel(rule.Size)] = url
		p.record(ctx, &models.Variant{
			SourceBucket: p.rules.SourceBucket,
			SourceKey:    asset.Key,
			Bucket:       rule.Name,
			Key:          asset.Key,
			Width:        rule.Size,
			Filter:       p.opts.DefaultFilter.String(),
			URL:          url,
			Mode:         models.ModeSync,
		})
	}
	return manifest, nil
}

// RecordResult is the outcome of one notification record in batch mode.
type RecordResult struct {
	Object   models.ObjectRef
	Skipped  SkipReason
	Manifest models.Manifest
	Failed   int
}

// BatchReport collects the per-record results of ProcessEvent.
type BatchReport struct {
	Records []RecordResult
}

// Processed counts records that went through the resize loop.
func (r BatchReport) Processed() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Skipped == SkipNone {
			n++
		}
	}
	return n
}

// ProcessEvent handles one batch of storage notifications. Every record is
// attempted; skipped records and failed variants are logged, not returned.
func (p *Processor) ProcessEvent(ctx context.Context, refs []models.ObjectRef) BatchReport {
	report := BatchReport{Records: make([]RecordResult, 0, len(refs))}
	for _, ref := range refs {
		res := p.processRecord(ctx, ref)
		if res.Skipped != SkipNone {
			p.log.Info().Str("bucket", ref.Bucket).Str("key", ref.Key).
				Str("reason", string(res.Skipped)).Msg("record skipped")
		}
		report.Records = append(report.Records, res)
	}
	return report
}

func (p *Processor) processRecord(ctx context.Context, ref models.ObjectRef) RecordResult {
	res := RecordResult{Object: ref}
	if ref.Bucket == "" {
		ref.Bucket = p.rules.SourceBucket
		res.Object.Bucket = ref.Bucket
	}
	if ref.Bucket != p.rules.SourceBucket {
		res.Skipped = SkipForeignBucket
		return res
	}

	ext, err := imageproc.CheckExtension(ref.Key)
	if err != nil {
		res.Skipped = SkipUnsupportedFormat
		return res
	}

	cctx, cancel := p.withTimeout(ctx)
	metadata, err := p.store.Stat(cctx, ref.Bucket, ref.Key)
	cancel()
	if err != nil {
		p.log.Error().Err(err).Str("bucket", ref.Bucket).Str("key", ref.Key).Msg("stat source object")
		res.Skipped = SkipUnreadable
		return res
	}
	if d := Check(metadata); !d.Process {
		res.Skipped = d.Reason
		return res
	}

	cctx, cancel = p.withTimeout(ctx)
	obj, err := p.store.Get(cctx, ref.Bucket, ref.Key)
	cancel()
	if err != nil {
		p.log.Error().Err(err).Str("bucket", ref.Bucket).Str("key", ref.Key).Msg("read source object")
		res.Skipped = SkipUnreadable
		return res
	}

	asset := models.ImageAsset{Key: ref.Key, Extension: ext, Body: obj.Body}
	res.Manifest = make(models.Manifest)
	for _, spec := range p.batchSpecs() {
		url, err := p.writeVariant(ctx, ref.Bucket, asset, spec)
		if err != nil {
			res.Failed++
			p.log.Error().Err(err).Str("bucket", ref.Bucket).Str("key", ref.Key).
				Int("width", spec.Width).Str("filter", spec.Filter.String()).Msg("variant failed")
			continue
		}
		res.Manifest[path.Base(imageproc.DeriveKey(asset.Key, spec.Width, spec.Filter))] = url
	}

	p.log.Info().Str("bucket", ref.Bucket).Str("key", ref.Key).
		Int("written", len(res.Manifest)).Int("failed", res.Failed).Msg("record processed")
	return res
}

// batchSpecs is the sizes x filters cross product, sizes outermost.
func (p *Processor) batchSpecs() []models.ResizeSpec {
	specs := make([]models.ResizeSpec, 0, len(p.opts.BatchSizes)*len(p.opts.Filters))
	for _, w := range p.opts.BatchSizes {
		for _, f := range p.opts.Filters {
			specs = append(specs, models.ResizeSpec{Width: w, Filter: f})
		}
	}
	return specs
}

func (p *Processor) writeVariant(ctx context.Context, bucket string, asset models.ImageAsset, spec models.ResizeSpec) (string, error) {
	resized, err := imageproc.Resize(asset.Body, asset.Extension, spec.Width, spec.Filter)
	if err != nil {
		return "", err
	}
	key := imageproc.DeriveKey(asset.Key, spec.Width, spec.Filter)
	if err := p.put(ctx, bucket, key, resized, imageproc.ContentType(asset.Extension), processedMetadata()); err != nil {
		return "", err
	}

	url := imageproc.PublicURL(p.opts.PublicBaseURL, bucket, key)
	p.record(ctx, &models.Variant{
		SourceBucket: bucket,
		SourceKey:    asset.Key,
		Bucket:       bucket,
		Key:          key,
		Width:        spec.Width,
		Filter:       spec.Filter.String(),
		URL:          url,
		Mode:         models.ModeBatch,
	})
	return url, nil
}

func (p *Processor) put(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	cctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if err := p.store.Put(cctx, bucket, key, body, contentType, metadata); err != nil {
		return &models.UploadError{Bucket: bucket, Key: key, Cause: err}
	}
	p.log.Info().Str("bucket", bucket).Str("key", key).Int("bytes", len(body)).Msg("file saved")
	return nil
}

func (p *Processor) record(ctx context.Context, v *models.Variant) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.SaveVariant(ctx, v); err != nil {
		p.log.Warn().Err(err).Str("bucket", v.Bucket).Str("key", v.Key).Msg("ledger write failed")
	}
}

func (p *Processor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.StorageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.opts.StorageTimeout)
}
