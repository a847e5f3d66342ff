// Package auth supplies the identity token carried by outbound order
// batches. Each variant authenticates as its own broker session; the
// session objects live in blob storage (the ops rotation job writes them)
// and are cached in memory between reads.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/forcepush/tradedesk/internal/domain"
)

// recheckInterval bounds how long a cached session is trusted before the
// blob store is consulted again, independent of the session's own expiry.
const recheckInterval = 5 * time.Minute

// Session is the stored broker session for one variant.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// expired reports whether the session can no longer be used. A zero
// ExpiresAt means the gateway decides.
func (s Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type cachedSession struct {
	session  Session
	loadedAt time.Time
}

// S3Provider implements domain.TokenProvider over blob storage.
type S3Provider struct {
	reader domain.BlobReader
	writer domain.BlobWriter
	logger *slog.Logger

	mu     sync.Mutex
	cached map[domain.Variant]cachedSession
}

// NewS3Provider creates a provider reading and rotating session objects
// through the given blob ports.
func NewS3Provider(reader domain.BlobReader, writer domain.BlobWriter, logger *slog.Logger) *S3Provider {
	return &S3Provider{
		reader: reader,
		writer: writer,
		logger: logger.With(slog.String("component", "session_provider")),
		cached: make(map[domain.Variant]cachedSession),
	}
}

var _ domain.TokenProvider = (*S3Provider)(nil)

// Token returns the variant's current session token, reading through to
// blob storage when the cached copy is stale or expired.
func (p *S3Provider) Token(ctx context.Context, variant domain.Variant) (string, error) {
	now := time.Now()

	p.mu.Lock()
	entry, ok := p.cached[variant]
	p.mu.Unlock()

	if ok && now.Sub(entry.loadedAt) < recheckInterval && !entry.session.expired(now) {
		return entry.session.Token, nil
	}

	session, err := p.load(ctx, variant)
	if err != nil {
		return "", err
	}
	if session.expired(now) {
		return "", fmt.Errorf("auth: session for %s expired at %s", variant.Label(), session.ExpiresAt.Format(time.RFC3339))
	}

	p.mu.Lock()
	p.cached[variant] = cachedSession{session: session, loadedAt: now}
	p.mu.Unlock()

	return session.Token, nil
}

// Rotate installs a new session for the variant: the object is written to
// blob storage and the cache updated, so the next batch carries the new
// token immediately.
func (p *S3Provider) Rotate(ctx context.Context, variant domain.Variant, session Session) error {
	if session.Token == "" {
		return fmt.Errorf("auth: rotate %s: empty token", variant.Label())
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := p.writer.Put(ctx, sessionKey(variant), data, "application/json"); err != nil {
		return fmt.Errorf("auth: rotate %s: %w", variant.Label(), err)
	}

	p.mu.Lock()
	p.cached[variant] = cachedSession{session: session, loadedAt: time.Now()}
	p.mu.Unlock()

	p.logger.Info("session rotated", slog.String("variant", variant.Label()))
	return nil
}

func (p *S3Provider) load(ctx context.Context, variant domain.Variant) (Session, error) {
	data, err := p.reader.Get(ctx, sessionKey(variant))
	if err != nil {
		return Session{}, fmt.Errorf("auth: load session for %s: %w", variant.Label(), err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("auth: decode session for %s: %w", variant.Label(), err)
	}
	if session.Token == "" {
		return Session{}, fmt.Errorf("auth: session for %s has no token", variant.Label())
	}

	p.logger.Debug("session loaded", slog.String("variant", variant.Label()))
	return session, nil
}

// sessionKey mirrors the original per-variant object naming: the alternate
// book's session carries a "2" suffix.
func sessionKey(variant domain.Variant) string {
	if variant == domain.VariantAlternate {
		return "data/session2.json"
	}
	return "data/session.json"
}
