package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAcknowledger struct {
	acked, nacked, requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestProcessMessage_Malformed(t *testing.T) {
	exec, _ := newTestExecutor()
	q := &QueueService{logger: zap.NewNop(), queueName: QueueName, executor: exec}

	for _, body := range []string{"{not json", `{"status":"pending"}`} {
		ack := &fakeAcknowledger{}
		q.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(body)}, 1)

		assert.True(t, ack.nacked, body)
		assert.False(t, ack.requeued, body)
		assert.False(t, ack.acked, body)
	}
}

func TestProcessMessage_RunsJob(t *testing.T) {
	exec, store := newTestExecutor()
	q := &QueueService{logger: zap.NewNop(), queueName: QueueName, executor: exec}

	in, out := fixtureDirs(t)
	body, err := json.Marshal(textJob("queued-1", in, out))
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	q.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body}, 1)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)

	job, err := store.Get(context.Background(), "queued-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, job.Status)
	assert.Equal(t, 2, job.Result.Processed)
}

func TestProcessMessage_FailedJobIsAcked(t *testing.T) {
	exec, store := newTestExecutor()
	q := &QueueService{logger: zap.NewNop(), queueName: QueueName, executor: exec}

	in, out := fixtureDirs(t)
	body, err := json.Marshal(imageJob("queued-2", in, out, "/does/not/exist.png"))
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	q.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body}, 2)

	assert.True(t, ack.acked)
	job, err := store.Get(context.Background(), "queued-2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, job.Status)
}
