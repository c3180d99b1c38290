package credentials

import "context"

// Backend is the device key-value storage the store persists into. Get
// reports absence with ok=false rather than an error; errors are reserved
// for storage I/O failures. RemoveItems deletes every named key in one batch
// and must succeed for keys that are already absent.
type Backend interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItems(ctx context.Context, keys ...string) error
}
