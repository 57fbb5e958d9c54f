package mongo

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const sessionsNS = "portal.portal_sessions"

func TestSessionStore_Load(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stored slot", func(mt *mtest.T) {
		payload := []byte(`{"email":"ana@example.com"}`)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, sessionsNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "flow-1"},
			{Key: "payload", Value: primitive.Binary{Data: payload}},
			{Key: "updated_at", Value: primitive.NewDateTimeFromTime(time.Now())},
		}))

		got, err := NewSessionStore(mt.DB, 0).Load(context.Background(), "flow-1")
		if err != nil {
			mt.Fatalf("Load returned error: %v", err)
		}
		if !bytes.Equal(got, payload) {
			mt.Fatalf("expected %q, got %q", payload, got)
		}
	})

	mt.Run("empty slot", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, sessionsNS, mtest.FirstBatch))

		got, err := NewSessionStore(mt.DB, 0).Load(context.Background(), "flow-2")
		if err != nil || got != nil {
			mt.Fatalf("expected empty slot, got %q, %v", got, err)
		}
	})

	mt.Run("backend failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad query"}))

		if _, err := NewSessionStore(mt.DB, 0).Load(context.Background(), "flow-3"); err == nil {
			mt.Fatal("expected an error")
		}
	})
}

func TestSessionStore_Save(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts the slot", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		if err := NewSessionStore(mt.DB, time.Hour).Save(context.Background(), "flow-1", []byte("data")); err != nil {
			mt.Fatalf("Save returned error: %v", err)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "update" {
			mt.Fatalf("expected an update command, got %+v", evt)
		}
		if upsert, ok := evt.Command.Lookup("updates", "0", "upsert").BooleanOK(); !ok || !upsert {
			mt.Fatalf("expected an upsert: %s", evt.Command)
		}
		if key, _ := evt.Command.Lookup("updates", "0", "q", "_id").StringValueOK(); key != "flow-1" {
			mt.Fatalf("expected slot flow-1, got %q", key)
		}
		if _, data := evt.Command.Lookup("updates", "0", "u", "payload").Binary(); string(data) != "data" {
			mt.Fatalf("unexpected payload %q", data)
		}
	})

	mt.Run("write failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "document failed validation"}))

		if err := NewSessionStore(mt.DB, 0).Save(context.Background(), "flow-1", []byte("data")); err == nil {
			mt.Fatal("expected an error")
		}
	})
}

func TestSessionStore_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("removes the slot", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := NewSessionStore(mt.DB, 0).Delete(context.Background(), "flow-1"); err != nil {
			mt.Fatalf("Delete returned error: %v", err)
		}
		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "delete" {
			mt.Fatalf("expected a delete command, got %+v", evt)
		}
	})
}

func TestSessionStore_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no ttl", func(mt *mtest.T) {
		if err := NewSessionStore(mt.DB, 0).EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("EnsureIndexes returned error: %v", err)
		}
		if evt := mt.GetStartedEvent(); evt != nil {
			mt.Fatalf("expected no command, got %s", evt.CommandName)
		}
	})

	mt.Run("expiry index", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := NewSessionStore(mt.DB, 2*time.Hour).EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("EnsureIndexes returned error: %v", err)
		}
		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "createIndexes" {
			mt.Fatalf("expected createIndexes, got %+v", evt)
		}
		expire, ok := evt.Command.Lookup("indexes", "0", "expireAfterSeconds").Int32OK()
		if !ok || expire != 7200 {
			mt.Fatalf("expected a 7200s expiry, got %s", evt.Command)
		}
	})
}
