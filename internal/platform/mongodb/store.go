package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

// Store is the Mongo-backed document store. A zero-config Store is a
// valid no-op: Available() is false and writes fail fast so callers
// can degrade.
type Store struct {
	db  *mongo.Database
	log *logger.Logger
}

// Connect dials Mongo when configured and returns a disabled store
// otherwise.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	log = log.With("service", "DocumentStore")
	if !cfg.Enabled() {
		log.Warn("document store not configured, catalog entries will use local ids")
		return &Store{log: log}, nil
	}
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info("mongodb connected", "database", cfg.Database)
	return &Store{db: client.Database(cfg.Database), log: log}, nil
}

func (s *Store) Available() bool { return s.db != nil }

func (s *Store) InsertOne(ctx context.Context, collection string, doc map[string]any) (string, error) {
	if s.db == nil {
		return "", types.Tag(types.KindStore, fmt.Errorf("document store unavailable"))
	}
	res, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", types.Tag(types.KindStore, fmt.Errorf("insert into %q: %w", collection, err))
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (s *Store) InsertMany(ctx context.Context, collection string, docs []map[string]any) error {
	if s.db == nil {
		return types.Tag(types.KindStore, fmt.Errorf("document store unavailable"))
	}
	if len(docs) == 0 {
		return nil
	}
	payload := make([]any, len(docs))
	for i, d := range docs {
		payload[i] = d
	}
	if _, err := s.db.Collection(collection).InsertMany(ctx, payload); err != nil {
		return types.Tag(types.KindStore, fmt.Errorf("insert %d docs into %q: %w", len(docs), collection, err))
	}
	return nil
}

var _ types.DocumentStore = (*Store)(nil)
