package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resize4me/internal/models"
	"resize4me/internal/service"
)

const minioNotification = `{
	"EventName": "s3:ObjectCreated:Put",
	"Key": "photos/my+cat.png",
	"Records": [
		{
			"eventName": "s3:ObjectCreated:Put",
			"s3": {
				"bucket": {"name": "photos"},
				"object": {"key": "my+cat.png", "size": 1024}
			}
		},
		{
			"eventName": "s3:ObjectCreated:Put",
			"s3": {
				"bucket": {"name": "photos"},
				"object": {"key": "albums%2Fdog.jpg"}
			}
		}
	]
}`

func TestParseNotification(t *testing.T) {
	refs, err := ParseNotification([]byte(minioNotification))
	require.NoError(t, err)
	assert.Equal(t, []models.ObjectRef{
		{Bucket: "photos", Key: "my cat.png"},
		{Bucket: "photos", Key: "albums/dog.jpg"},
	}, refs)
}

func TestParseNotification_Errors(t *testing.T) {
	_, err := ParseNotification([]byte(`{"Records": [`))
	assert.Error(t, err)

	_, err = ParseNotification([]byte(`{"Event": "s3:TestEvent"}`))
	assert.ErrorIs(t, err, ErrNoRecords)

	refs, err := ParseNotification([]byte(`{"Records": [{"s3": {"bucket": {"name": "b"}, "object": {"key": "%zz"}}}]}`))
	assert.ErrorIs(t, err, ErrBadRecord)
	assert.Empty(t, refs)

	refs, err = ParseNotification([]byte(`{"Records": [{"s3": {"bucket": {"name": "b"}, "object": {}}}]}`))
	assert.ErrorIs(t, err, ErrBadRecord)
	assert.Empty(t, refs)
}

const mixedNotification = `{"Records": [
	{"s3": {"bucket": {"name": "photos"}, "object": {"key": "%zz.png"}}},
	{"s3": {"bucket": {"name": "photos"}, "object": {"key": "cat.png"}}},
	{"s3": {"bucket": {"name": "photos"}, "object": {"key": ""}}},
	{"s3": {"bucket": {"name": "photos"}, "object": {"key": "dog+1.jpg"}}}
]}`

func TestParseNotification_SkipsBadRecords(t *testing.T) {
	refs, err := ParseNotification([]byte(mixedNotification))
	assert.ErrorIs(t, err, ErrBadRecord)
	assert.Equal(t, []models.ObjectRef{
		{Bucket: "photos", Key: "cat.png"},
		{Bucket: "photos", Key: "dog 1.jpg"},
	}, refs)
}

func TestHandleMessage_ProcessesUsableRecords(t *testing.T) {
	proc := &recordingProcessor{}
	c := &Consumer{proc: proc, log: zerolog.Nop()}

	c.HandleMessage(context.Background(), []byte(mixedNotification))

	require.Len(t, proc.batches, 1)
	assert.Equal(t, []models.ObjectRef{
		{Bucket: "photos", Key: "cat.png"},
		{Bucket: "photos", Key: "dog 1.jpg"},
	}, proc.batches[0])
}

type recordingProcessor struct {
	mu      sync.Mutex
	batches [][]models.ObjectRef
}

func (p *recordingProcessor) ProcessEvent(_ context.Context, refs []models.ObjectRef) service.BatchReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, refs)
	return service.BatchReport{}
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	if m.Value == nil {
		return kafka.Message{}, errors.New("broker unavailable")
	}
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte(minioNotification)},
			{Offset: 2}, // fetch error
			{Offset: 3, Value: []byte(`not json`)},
			{Offset: 4, Value: []byte(`{"Records": [{"s3": {"bucket": {"name": "photos"}, "object": {"key": "a.png"}}}]}`)},
		},
	}
	proc := &recordingProcessor{}
	c := &Consumer{reader: reader, proc: proc, log: zerolog.Nop()}

	c.Run(ctx)

	require.Len(t, proc.batches, 2)
	assert.Len(t, proc.batches[0], 2)
	assert.Equal(t, "a.png", proc.batches[1][0].Key)
	assert.Equal(t, []int64{1, 3, 4}, reader.committed)
}
