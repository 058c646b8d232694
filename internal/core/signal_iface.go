package core

import "errors"

//go:generate mockgen -source=signal_iface.go -destination=mocks/mock_signal.go -package=mocks

var ErrBackpressure = errors.New("backpressure")

// Frame is a raw encoded message.
type Frame []byte

// SessionID identifies one live connection.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend must never block. A full buffer returns ErrBackpressure.
	TrySend(Frame) error
	Close()
}
