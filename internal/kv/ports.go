package kv

import (
	"context"
	"errors"
)

// Ports for outbound storage adapters.
type (
	// Reader returns the value stored under key. found is false when the key
	// has never been written or was removed.
	Reader interface {
		Get(ctx context.Context, key string) (value string, found bool, err error)
	}

	Writer interface {
		Set(ctx context.Context, key, value string) error
	}

	Remover interface {
		Remove(ctx context.Context, key string) error
	}

	// Store is the local key-value primitive the expense collection lives in.
	Store interface {
		Reader
		Writer
		Remover
	}
)

var ErrEmptyKey = errors.New("empty key")
