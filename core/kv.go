package core

import (
	"context"
	"errors"
)

// Persisted state keys
const (
	KeyAdminAuthenticated = "adminAuthenticated"
	KeySubmissions        = "schoolCensusSubmissions"
	KeyHomeCustomization  = "homeCustomization"
	KeyFormFields         = "customFormFields"
)

var ErrKeyNotFound = errors.New("key not found")

type (
	// KVStore persists opaque blobs under string keys.
	KVStore interface {
		// Get returns ErrKeyNotFound when nothing is stored under key.
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte) error
		// Update atomically replaces the value stored under key with the result of fn.
		// fn receives nil when the key does not exist; returning an error aborts the update.
		Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
		Close() error
	}

	// KVWatcher is implemented by stores able to push the keys written by other processes.
	KVWatcher interface {
		Watch(ctx context.Context) (<-chan string, error)
	}
)
