package ports

import "context"

// SessionStore is the durable key-value slot holding serialized identities.
// Load returns (nil, nil) when the key is absent.
type SessionStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
