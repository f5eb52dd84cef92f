package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainacq/internal/models"
)

type recorder struct {
	got []Transition
	err error
}

func (r *recorder) Emit(_ context.Context, t Transition) error {
	r.got = append(r.got, t)
	return r.err
}

func TestLogPublisher_Emit(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

	err := p.Emit(context.Background(), Transition{
		RecordID:       "rec-1",
		OriginalDomain: "abcd.de",
		From:           models.StatusPurchasing,
		To:             models.StatusError,
		Error:          "insufficient funds",
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "record_id=rec-1")
	assert.Contains(t, out, "to=error")
	assert.Contains(t, out, `error="insufficient funds"`)
}

func TestFanout_Emit(t *testing.T) {
	ok := &recorder{}
	failing := &recorder{err: errors.New("broker down")}

	err := Fanout{ok, nil, failing}.Emit(context.Background(), Transition{RecordID: "rec-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, ok.got, 1)
	assert.Len(t, failing.got, 1)
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "topic")
	assert.Error(t, err)
	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}

func TestKafkaPublisher_EmitGivesUpWhenBrokerIsDown(t *testing.T) {
	p, err := NewKafkaPublisher([]string{"127.0.0.1:1"}, "domainacq.transitions")
	require.NoError(t, err)
	t.Cleanup(p.Close)
	p.timeout = 200 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- p.Emit(context.WithoutCancel(context.Background()), Transition{
			RecordID: "rec-1",
			From:     models.StatusFound,
			To:       models.StatusPurchasing,
		})
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Emit did not return with the broker unreachable")
	}
}
