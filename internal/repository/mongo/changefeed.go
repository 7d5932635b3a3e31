package mongo

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// Backoff between watch attempts after a change stream dies.
const watchRetryDelay = 2 * time.Second

// ChangeFeed bridges MongoDB change streams to plain callbacks. Delivery is
// at-least-once with no ordering guarantee; consumers are expected to treat
// every event as "something changed, go refetch".
type ChangeFeed struct {
	db  *mongo.Database
	log zerolog.Logger
}

// NewChangeFeed creates a change feed over the given database.
func NewChangeFeed(db *mongo.Database, logger zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{
		db:  db,
		log: logger.With().Str("component", "changefeed").Logger(),
	}
}

// Subscribe starts watching a collection and invokes handler with the
// operation type (insert, update, replace, delete, ...) for every change
// event. The watcher runs until ctx is cancelled, re-establishing the stream
// after transient errors.
func (f *ChangeFeed) Subscribe(ctx context.Context, collection string, handler func(operation string)) error {
	coll := f.db.Collection(collection)
	go f.watch(ctx, coll, handler)
	return nil
}

func (f *ChangeFeed) watch(ctx context.Context, coll *mongo.Collection, handler func(operation string)) {
	for ctx.Err() == nil {
		stream, err := coll.Watch(ctx, mongo.Pipeline{})
		if err != nil {
			f.log.Warn().Err(err).Str("collection", coll.Name()).Msg("change stream open failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(watchRetryDelay):
			}
			continue
		}

		f.log.Debug().Str("collection", coll.Name()).Msg("change stream established")

		for stream.Next(ctx) {
			var event struct {
				OperationType string `bson:"operationType"`
			}
			if err := stream.Decode(&event); err != nil {
				f.log.Warn().Err(err).Str("collection", coll.Name()).Msg("failed to decode change event")
				continue
			}
			handler(event.OperationType)
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			f.log.Warn().Err(err).Str("collection", coll.Name()).Msg("change stream interrupted, re-establishing")
		}
		_ = stream.Close(context.Background())

		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
	}
}
