package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-consult-auth/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct{ mock.Mock }

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error { return m.Called().Error(0) }

func TestPublisher_EncodesEventKeyedByDevice(t *testing.T) {
	w := new(mockWriter)
	var sent []kafkago.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).([]kafkago.Message)
	}).Return(nil)

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &Publisher{w: w}
	p.Publish(context.Background(), domain.AuthEvent{
		Type:       domain.EventLoginSucceeded,
		DeviceID:   "dev-1",
		IdentityID: "id-1",
		At:         at,
	})

	require.Len(t, sent, 1)
	assert.Equal(t, []byte("dev-1"), sent[0].Key)
	var got domain.AuthEvent
	require.NoError(t, json.Unmarshal(sent[0].Value, &got))
	assert.Equal(t, domain.EventLoginSucceeded, got.Type)
	assert.Equal(t, "id-1", got.IdentityID)
	assert.True(t, at.Equal(got.At))
}

func TestPublisher_WriteErrorIsSwallowed(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	p := &Publisher{w: w}
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), domain.AuthEvent{Type: domain.EventLogout})
	})
	w.AssertExpectations(t)
}
