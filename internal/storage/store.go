// Package storage holds the object-store backends that keep uploaded images and videos.
package storage

import (
	"context"
	"errors"
	"io"
)

// Object is a blob to be written under Key.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists objects and returns the public URL of each stored object.
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, key string) error
}

var ErrEmptyKey = errors.New("storage: empty object key")
