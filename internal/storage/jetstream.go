package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const contentTypeKey = "content-type"

// JetStreamStore keeps objects in a NATS JetStream object store bucket.
type JetStreamStore struct {
	objects jetstream.ObjectStore
}

func NewJetStreamStore(ctx context.Context, nc *nats.Conn, bucket string) (*JetStreamStore, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	objects, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "forum post images",
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("object store %s: %w", bucket, err)
	}

	return &JetStreamStore{objects: objects}, nil
}

func (s *JetStreamStore) Put(ctx context.Context, name, contentType string, r io.Reader) (*Info, error) {
	info, err := s.objects.Put(ctx, jetstream.ObjectMeta{
		Name:     name,
		Metadata: map[string]string{contentTypeKey: contentType},
	}, r)
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", name, err)
	}
	return &Info{Name: info.Name, ContentType: contentType, Size: int64(info.Size)}, nil
}

func (s *JetStreamStore) Get(ctx context.Context, name string) (*Object, error) {
	res, err := s.objects.Get(ctx, name)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}

	info, err := res.Info()
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("info %s: %w", name, err)
	}

	return &Object{
		ReadCloser: res,
		Info: Info{
			Name:        info.Name,
			ContentType: info.Metadata[contentTypeKey],
			Size:        int64(info.Size),
		},
	}, nil
}
