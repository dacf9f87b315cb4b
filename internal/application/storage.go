package application

import "context"

// ObjectStore is transient scratch space for audio handed to the
// transcription service. Put returns the URI the service should read from.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
