package activity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	actions []string
	err     error
}

func (s *recordingSink) LogActivity(_ context.Context, _ int64, action, _ string) error {
	s.actions = append(s.actions, action)
	return s.err
}

func TestRecorderFansOutAndSwallowsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	failing := &recordingSink{err: errors.New("sink down")}
	ok := &recordingSink{}

	rec := NewRecorder(zap.New(core), failing, ok)
	rec.Record(context.Background(), 1, ActionLogin, "User logged in")

	assert.Equal(t, []string{ActionLogin}, failing.actions)
	assert.Equal(t, []string{ActionLogin}, ok.actions)
	assert.Equal(t, 1, logs.FilterMessage("activity sink failed").Len())
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), 1, ActionLogout, "noop")
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.LogActivity(context.Background(), 9, ActionLogout, "User logged out"))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "User logged out", entries[0].Message)
	assert.Equal(t, ActionLogout, entries[0].ContextMap()["action"])
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestAMQPSinkPublishesJSON(t *testing.T) {
	ch := &fakeChannel{}
	sink := &AMQPSink{channel: ch, exchange: "tutorhub.activity"}

	require.NoError(t, sink.LogActivity(context.Background(), 3, ActionPasswordReset, "Password reset completed"))

	assert.Equal(t, "tutorhub.activity", ch.exchange)
	assert.Equal(t, "auth.password_reset", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var ev Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &ev))
	assert.Equal(t, int64(3), ev.UserID)
	assert.Equal(t, ActionPasswordReset, ev.Action)

	_, err := uuid.Parse(ch.msg.MessageId)
	require.NoError(t, err, "message id %q", ch.msg.MessageId)
	first := ch.msg.MessageId
	require.NoError(t, sink.LogActivity(context.Background(), 3, ActionPasswordReset, "Password reset completed"))
	assert.NotEqual(t, first, ch.msg.MessageId)

	require.NoError(t, sink.Close())
}

func TestNewAMQPSinkRequiresURL(t *testing.T) {
	_, err := NewAMQPSink(" ", "x")
	assert.Error(t, err)
}
