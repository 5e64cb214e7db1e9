package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"resize4me/internal/models"
	"resize4me/internal/service"
)

type BatchProcessor interface {
	ProcessEvent(ctx context.Context, refs []models.ObjectRef) service.BatchReport
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one notification batch per Kafka message and hands it to
// the processor. Messages are committed after processing, whatever the outcome.
type Consumer struct {
	reader messageReader
	proc   BatchProcessor
	log    zerolog.Logger
}

func NewConsumer(brokers []string, topic, group string, proc BatchProcessor, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{reader: reader, proc: proc, log: log}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			c.log.Error().Err(err).Msg("error reading message")
			continue
		}

		c.HandleMessage(ctx, msg.Value)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("commit message")
		}
	}
}

// HandleMessage processes a single notification payload.
func (c *Consumer) HandleMessage(ctx context.Context, value []byte) {
	refs, err := ParseNotification(value)
	switch {
	case errors.Is(err, ErrNoRecords):
		c.log.Debug().Msg("notification without records")
		return
	case len(refs) == 0:
		c.log.Error().Err(err).Msg("bad notification")
		return
	case err != nil:
		c.log.Warn().Err(err).Int("usable", len(refs)).Msg("notification records skipped")
	}

	report := c.proc.ProcessEvent(ctx, refs)
	c.log.Info().Int("records", len(refs)).Int("processed", report.Processed()).Msg("notification handled")
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
