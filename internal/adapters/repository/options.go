package repository

import (
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/pkg/logger"
)

// Option applies a configuration option to the EventStore.
type Option func(*EventStore)

// WithSnapshotter persists the mapping after every mutation.
func WithSnapshotter(s Snapshotter) Option {
	return func(es *EventStore) {
		es.snap = s
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l logger.Logger) Option {
	return func(es *EventStore) {
		if l != nil {
			es.log = l
		}
	}
}

// WithCodec sets the codec used to key incoming event dates.
func WithCodec(c *datekey.Codec) Option {
	return func(es *EventStore) {
		if c != nil {
			es.codec = c
		}
	}
}

// WithSnapshotKey overrides the key the mapping is stored under.
func WithSnapshotKey(key string) Option {
	return func(es *EventStore) {
		if key != "" {
			es.snapKey = key
		}
	}
}
