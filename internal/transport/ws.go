// Package transport provides the persistent websocket channel to the order
// gateway. Outbound messages are fire-and-forget JSON writes; everything
// the gateway sends back is delivered on a single inbound channel so one
// reconciliation loop can consume it without losing simultaneous arrivals.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/forcepush/tradedesk/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second

	// inboundBuffer absorbs bursts of confirmations between reads of the
	// inbound channel.
	inboundBuffer = 64
)

// Client is a websocket client for the order gateway. It implements
// domain.Transport and manages the connection lifecycle, keep-alives, and
// reconnection with exponential backoff.
type Client struct {
	url  string
	conn *websocket.Conn

	mu     sync.RWMutex
	closed bool

	inbound chan json.RawMessage
	done    chan struct{}
	logger  *slog.Logger
}

// NewClient creates a gateway client for the given websocket URL, e.g.
// "wss://api2.dev.forcepu.sh".
func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{
		url:     url,
		inbound: make(chan json.RawMessage, inboundBuffer),
		done:    make(chan struct{}),
		logger:  logger.With(slog.String("component", "gateway_ws")),
	}
}

// Connect establishes the websocket connection and starts the read and ping
// loops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("transport: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("transport: connect: %w", err)
	}
	c.conn = conn

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readLoop()
	go c.pingLoop()

	c.logger.Info("gateway connected", slog.String("url", c.url))
	return nil
}

// Send marshals v and writes it to the gateway. It does not wait for any
// response; outcomes arrive later on Messages.
func (c *Client) Send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("transport: marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		return fmt.Errorf("transport: send: %w", domain.ErrWSDisconnect)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

var _ domain.Transport = (*Client)(nil)

// Messages returns the inbound stream. The channel is shared across
// reconnects; it is never closed while the client is open.
func (c *Client) Messages() <-chan json.RawMessage {
	return c.inbound
}

// Close shuts down the connection and stops the background loops. Safe to
// call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	if c.conn != nil {
		_ = c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return c.conn.Close()
	}
	return nil
}

// readLoop reads gateway messages and forwards them to the inbound channel.
// On read error it hands off to reconnect and exits; the replacement
// connection starts its own loop.
func (c *Client) readLoop() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("gateway read failed, reconnecting", slog.String("error", err.Error()))
			c.reconnect()
			return
		}

		// Copy: gorilla may reuse the read buffer.
		raw := make(json.RawMessage, len(message))
		copy(raw, message)

		select {
		case c.inbound <- raw:
		case <-c.done:
			return
		}
	}
}

// pingLoop keeps the connection alive with periodic pings.
func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()
			if conn == nil {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reconnect re-establishes the connection with exponential backoff. It
// blocks until successful or until the client is closed.
func (c *Client) reconnect() {
	delay := reconnectDelay

	for {
		select {
		case <-c.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := c.Connect(ctx)
		cancel()
		if err == nil {
			return
		}
		c.logger.Warn("gateway reconnect failed", slog.String("error", err.Error()))

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
