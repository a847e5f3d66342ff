package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyQueue        = errors.New("intent queue is empty")
	ErrDirectionConflict = errors.New("direction conflicts with queued batch")
	ErrAlreadyInFlight   = errors.New("symbol already in flight")
	ErrUnknownHolding    = errors.New("no holding for symbol")
	ErrSendFailed        = errors.New("batch send failed")
	ErrConfirmTimeout    = errors.New("confirmation timed out")
	ErrWSDisconnect      = errors.New("websocket disconnected")
)
