package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aidattendance/portal/internal/core/ports"
)

const sessionsCollection = "portal_sessions"

// SessionStore keeps durable session slots in MongoDB, one document per
// flow id.
type SessionStore struct {
	coll *mongo.Collection
	ttl  time.Duration
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore wraps db. A positive ttl expires slots through a TTL index
// created by EnsureIndexes.
func NewSessionStore(db *mongo.Database, ttl time.Duration) *SessionStore {
	return &SessionStore{coll: db.Collection(sessionsCollection), ttl: ttl}
}

type sessionDoc struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *SessionStore) Load(ctx context.Context, key string) ([]byte, error) {
	var doc sessionDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return doc.Payload, nil
}

func (s *SessionStore) Save(ctx context.Context, key string, value []byte) error {
	doc := sessionDoc{Key: key, Payload: value, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// EnsureIndexes creates the expiry index when a ttl is configured.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl.Seconds())),
	})
	return err
}
