package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/aimoney/aimoney-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{QueueSize: 8, MaxAttempts: 3, Backoff: time.Millisecond, AttemptTimeout: time.Second}
}

func TestTranscriptDispatcher_DeliversInOrder(t *testing.T) {
	sink := NewMockTranscriptSink()
	d := NewTranscriptDispatcher(sink, fastDispatcherOptions())

	assert.True(t, d.Enqueue(models.NewTranscriptEntry("s1", models.ChatRoleUser, "hi", "1.1.1.1")))
	assert.True(t, d.Enqueue(models.NewTranscriptEntry("s1", models.ChatRoleModel, "hello", "1.1.1.1")))

	require.NoError(t, d.Close(context.Background()))

	entries := sink.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.ChatRoleUser, entries[0].Role)
	assert.Equal(t, models.ChatRoleModel, entries[1].Role)
}

func TestTranscriptDispatcher_RetriesThenSucceeds(t *testing.T) {
	sink := &MockTranscriptSink{Err: errors.New("sheet down"), FailTimes: 2}
	d := NewTranscriptDispatcher(sink, fastDispatcherOptions())

	d.Enqueue(models.NewTranscriptEntry("s1", models.ChatRoleUser, "hi", ""))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, 3, sink.Attempts())
	assert.Len(t, sink.Entries(), 1)
}

func TestTranscriptDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	sink := &MockTranscriptSink{Err: errors.New("sheet down")}
	d := NewTranscriptDispatcher(sink, fastDispatcherOptions())

	d.Enqueue(models.NewTranscriptEntry("s1", models.ChatRoleUser, "hi", ""))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, 3, sink.Attempts())
	assert.Empty(t, sink.Entries())
}

// blockingSink holds every Append until release is closed
type blockingSink struct {
	release chan struct{}
	once    sync.Once
	started chan struct{}
}

func (b *blockingSink) Append(ctx context.Context, entry models.TranscriptEntry) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func TestTranscriptDispatcher_DropsWhenQueueFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{}), started: make(chan struct{})}
	d := NewTranscriptDispatcher(sink, DispatcherOptions{QueueSize: 1, MaxAttempts: 1})

	// first entry is picked up by the worker and blocks there
	require.True(t, d.Enqueue(models.NewTranscriptEntry("s", "user", "1", "")))
	<-sink.started

	assert.True(t, d.Enqueue(models.NewTranscriptEntry("s", "user", "2", "")), "queue has one free slot")
	assert.False(t, d.Enqueue(models.NewTranscriptEntry("s", "user", "3", "")), "queue is full")

	close(sink.release)
	require.NoError(t, d.Close(context.Background()))
}

func TestTranscriptDispatcher_CloseTwiceAndEnqueueAfterClose(t *testing.T) {
	d := NewTranscriptDispatcher(NewMockTranscriptSink(), fastDispatcherOptions())

	require.NoError(t, d.Close(context.Background()))
	assert.ErrorIs(t, d.Close(context.Background()), ErrDispatcherClosed)
	assert.False(t, d.Enqueue(models.NewTranscriptEntry("s", "user", "late", "")))
}

func TestTranscriptDispatcher_CloseHonoursDeadline(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{}), started: make(chan struct{})}
	d := NewTranscriptDispatcher(sink, DispatcherOptions{QueueSize: 1, MaxAttempts: 1})
	d.Enqueue(models.NewTranscriptEntry("s", "user", "1", ""))
	<-sink.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(sink.release)
}

func TestSheetTranscriptSink_PostsEntry(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	sink := NewSheetTranscriptSink(NewSheetClient(server.URL))
	err := sink.Append(context.Background(), models.NewTranscriptEntry("sess-9", models.ChatRoleUser, "안녕하세요", "10.0.0.1"))
	require.NoError(t, err)

	assert.Equal(t, "chat", got["type"])
	assert.Equal(t, "sess-9", got["sessionId"])
	assert.Equal(t, "user", got["role"])
	assert.Equal(t, "안녕하세요", got["message"])
	assert.Equal(t, "10.0.0.1", got["ip"])
}

func TestSheetClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	err := NewSheetClient(server.URL).Append(context.Background(), map[string]string{"a": "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSheetClient_Configured(t *testing.T) {
	assert.False(t, NewSheetClient("").Configured())
	assert.True(t, NewSheetClient("https://script.google.com/macros/s/x/exec").Configured())

	var nilClient *SheetClient
	assert.False(t, nilClient.Configured())
}

func TestKafkaTranscriptSink_PublishesKeyedBySession(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	defer producer.Close()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var entry models.TranscriptEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return err
		}
		if entry.SessionID != "sess-1" || entry.Role != models.ChatRoleModel {
			return errors.New("unexpected entry")
		}
		return nil
	})

	sink := NewKafkaTranscriptSink(producer, "chat-transcripts")
	err := sink.Append(context.Background(), models.NewTranscriptEntry("sess-1", models.ChatRoleModel, "반갑습니다", ""))
	assert.NoError(t, err)
}

func TestKafkaTranscriptSink_PublishError(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	defer producer.Close()

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := NewKafkaTranscriptSink(producer, "chat-transcripts")
	err := sink.Append(context.Background(), models.NewTranscriptEntry("sess-1", models.ChatRoleUser, "hi", ""))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func TestLogTranscriptSink_NeverFails(t *testing.T) {
	assert.NoError(t, LogTranscriptSink{}.Append(context.Background(), models.NewTranscriptEntry("s", "user", "m", "")))
}
