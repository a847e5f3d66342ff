package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcepush/tradedesk/internal/domain"
)

type captureSender struct {
	mu       sync.Mutex
	name     string
	err      error
	titles   []string
	messages []string
}

func (c *captureSender) Send(_ context.Context, title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.titles = append(c.titles, title)
	c.messages = append(c.messages, message)
	return nil
}

func (c *captureSender) Name() string { return c.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNotifier_EventFilter(t *testing.T) {
	sender := &captureSender{name: "capture"}
	n := NewNotifier([]Sender{sender}, []string{"failure"}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), "success", "Success", "ignored"))
	require.NoError(t, n.Notify(context.Background(), "failure", "Failure", "delivered"))

	assert.Equal(t, []string{"Failure"}, sender.titles)
}

func TestNotifier_EmptyFilterAllowsAll(t *testing.T) {
	sender := &captureSender{name: "capture"}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())

	require.NoError(t, n.Notify(context.Background(), "success", "Success", "a"))
	require.NoError(t, n.Notify(context.Background(), "failure", "Failure", "b"))
	assert.Len(t, sender.titles, 2)
}

func TestNotifier_SenderFailureDoesNotStopOthers(t *testing.T) {
	broken := &captureSender{name: "broken", err: errors.New("timeout")}
	healthy := &captureSender{name: "healthy"}
	n := NewNotifier([]Sender{broken, healthy}, nil, discardLogger())

	err := n.Notify(context.Background(), "success", "Success", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"Success"}, healthy.titles)
}

func TestOutcomes_Success(t *testing.T) {
	sender := &captureSender{name: "capture"}
	out := NewOutcomes(NewNotifier([]Sender{sender}, nil, discardLogger()))

	out.Notify(context.Background(), domain.Notification{
		Kind:   domain.NotifySuccess,
		Symbol: "AAPL",
		Amount: 125.0,
	})
	out.Notify(context.Background(), domain.Notification{
		Kind:   domain.NotifySuccess,
		Symbol: "TSLA",
		Amount: -50.0,
	})

	require.Len(t, sender.titles, 2)
	assert.Equal(t, "Success + $125", sender.titles[0])
	assert.Equal(t, "Executed order for AAPL!", sender.messages[0])
	assert.Equal(t, "Success - $50", sender.titles[1])
}

func TestOutcomes_Failure(t *testing.T) {
	sender := &captureSender{name: "capture"}
	out := NewOutcomes(NewNotifier([]Sender{sender}, nil, discardLogger()))

	out.Notify(context.Background(), domain.Notification{
		Kind:   domain.NotifyFailure,
		Symbol: "MSFT",
		Reason: "insufficient buying power",
	})
	out.Notify(context.Background(), domain.Notification{
		Kind:   domain.NotifyFailure,
		Reason: "session expired",
	})

	require.Len(t, sender.messages, 2)
	assert.Equal(t, "Failed to execute order for MSFT. insufficient buying power", sender.messages[0])
	assert.Equal(t, "Failed to execute order. session expired", sender.messages[1])
}
