package ports

import "go.trai.ch/filesentry/internal/core/domain"

// Backend is the OS notification source. It watches single directories
// (never recursively) and identifies them by handle.
//
//go:generate mockgen -source=backend.go -destination=mocks/mock_backend.go -package=mocks
type Backend interface {
	// Register starts watching dir and returns a fresh handle for it.
	// Registering the same directory twice yields two independent handles.
	Register(dir string) (domain.Handle, error)
	// Unregister stops delivering notifications for the handle.
	Unregister(h domain.Handle) error
	// Events is the raw notification stream. It is closed by Close.
	Events() <-chan domain.Notification
	// Close releases every registration and closes the stream.
	Close() error
}
