package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	eventsCollection   = "weekly_events"
	progressCollection = "user_weekly_event_progress"
	votesCollection    = "weekly_event_votes"
	usersCollection    = "users"
)

// Connect opens a client and pings the server.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the stores rely on, including the uniqueness
// constraints on (userId, eventId) and (userId, eventId, nodeIndex).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		eventsCollection: {
			{Keys: bson.D{{Key: "weekKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "startsAt", Value: 1}, {Key: "endsAt", Value: 1}}},
		},
		progressCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "eventId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		votesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "eventId", Value: 1}, {Key: "nodeIndex", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "nodeIndex", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// userKey matches user documents keyed by ObjectID as well as by plain string IDs.
func userKey(userID string) any {
	if id, err := primitive.ObjectIDFromHex(userID); err == nil {
		return id
	}
	return userID
}
