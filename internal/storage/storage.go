package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("object not found")

type Info struct {
	Name        string
	ContentType string
	Size        int64
}

// Object is an open stored object. Callers close it.
type Object struct {
	io.ReadCloser
	Info Info
}

// ObjectStore keeps uploaded binaries.
type ObjectStore interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (*Info, error)
	Get(ctx context.Context, name string) (*Object, error)
}
