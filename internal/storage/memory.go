package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory keeps objects in process memory. Used when the API runs without
// NATS; objects do not survive a restart.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

func (m *Memory) Put(_ context.Context, name, contentType string, r io.Reader) (*Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", name, err)
	}

	m.mu.Lock()
	m.objects[name] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()

	return &Info{Name: name, ContentType: contentType, Size: int64(len(data))}, nil
}

func (m *Memory) Get(_ context.Context, name string) (*Object, error) {
	m.mu.RLock()
	obj, ok := m.objects[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	return &Object{
		ReadCloser: io.NopCloser(bytes.NewReader(obj.data)),
		Info:       Info{Name: name, ContentType: obj.contentType, Size: int64(len(obj.data))},
	}, nil
}
