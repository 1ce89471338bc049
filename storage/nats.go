package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mconlon17/vivo-course-ingest/rdf"
)

// DefaultBucket is the KV bucket holding ingest graphs.
const DefaultBucket = "VIVO_GRAPHS"

// NATSStore persists the ingest graph as a single JetStream KV entry.
// Snapshot reads the entry at its current revision; Apply replaces it
// with a compare-and-swap on that revision. The CAS is both the
// all-or-nothing guarantee and the single-writer guarantee: a concurrent
// writer moves the revision and the apply fails instead of clobbering.
type NATSStore struct {
	kv  jetstream.KeyValue
	key string
}

// NewNATSStore opens (or creates) the bucket and returns a store for the
// graph stored under key.
func NewNATSStore(ctx context.Context, js jetstream.JetStream, bucket, key string) (*NATSStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return &NATSStore{kv: kv, key: key}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "VIVO ingest graph storage",
		History:     5, // Keep last 5 revisions for operator inspection
	})
}

func (n *NATSStore) Snapshot(ctx context.Context) (*Graph, error) {
	entry, err := n.kv.Get(ctx, n.key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			// An empty store is a valid starting point.
			return NewGraph(nil, 0), nil
		}
		return nil, fmt.Errorf("get graph %s: %w", n.key, err)
	}

	var statements []rdf.Statement
	if err := json.Unmarshal(entry.Value(), &statements); err != nil {
		return nil, fmt.Errorf("unmarshal graph %s: %w", n.key, err)
	}

	return NewGraph(statements, entry.Revision()), nil
}

func (n *NATSStore) Apply(ctx context.Context, additions, retractions []rdf.Statement) error {
	snapshot, err := n.Snapshot(ctx)
	if err != nil {
		return &WriteError{Op: "snapshot", Err: err}
	}

	next, err := applyToSet(snapshot.Set(), additions, retractions)
	if err != nil {
		return &WriteError{Op: "apply", Err: err}
	}

	data, err := json.Marshal(next.Statements())
	if err != nil {
		return &WriteError{Op: "marshal", Err: err}
	}

	if snapshot.Revision() == 0 {
		if _, err := n.kv.Create(ctx, n.key, data); err != nil {
			return &WriteError{Op: "create", Err: err}
		}
		return nil
	}

	if _, err := n.kv.Update(ctx, n.key, data, snapshot.Revision()); err != nil {
		return &WriteError{Op: "update", Err: fmt.Errorf("concurrent write detected: %w", err)}
	}
	return nil
}

var _ Store = (*NATSStore)(nil)
