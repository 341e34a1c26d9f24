package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trivia-events-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type voteDoc struct {
	UserID    string    `bson:"userId"`
	EventID   string    `bson:"eventId"`
	NodeIndex int       `bson:"nodeIndex"`
	OptionID  string    `bson:"optionId"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// VoteStore keeps one WeeklyEventVote document per (user, event, node).
type VoteStore struct {
	collection *mongo.Collection
}

func NewVoteStore(db *mongo.Database) *VoteStore {
	return &VoteStore{collection: db.Collection(votesCollection)}
}

func voteFilter(userID, eventID string, nodeIndex int) bson.M {
	return bson.M{"userId": userID, "eventId": eventID, "nodeIndex": nodeIndex}
}

// Upsert replaces the user's previous choice; votes are never additive.
func (s *VoteStore) Upsert(ctx context.Context, vote domain.Vote) error {
	filter := voteFilter(vote.UserID, vote.EventID, vote.NodeIndex)
	update := bson.M{
		"$set":         bson.M{"optionId": vote.OptionID, "updatedAt": vote.UpdatedAt},
		"$setOnInsert": bson.M{"createdAt": vote.UpdatedAt},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.collection.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent first vote inserted the row; this update now matches it.
		_, err = s.collection.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

func (s *VoteStore) Get(ctx context.Context, userID, eventID string, nodeIndex int) (domain.Vote, bool, error) {
	var doc voteDoc
	err := s.collection.FindOne(ctx, voteFilter(userID, eventID, nodeIndex)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Vote{}, false, nil
	}
	if err != nil {
		return domain.Vote{}, false, fmt.Errorf("find vote: %w", err)
	}
	return domain.Vote{
		UserID:    doc.UserID,
		EventID:   doc.EventID,
		NodeIndex: doc.NodeIndex,
		OptionID:  doc.OptionID,
		UpdatedAt: doc.UpdatedAt,
	}, true, nil
}

// Tally groups the node's vote rows by option.
func (s *VoteStore) Tally(ctx context.Context, eventID string, nodeIndex int) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "eventId", Value: eventID}, {Key: "nodeIndex", Value: nodeIndex}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$optionId"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate votes: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		OptionID string `bson:"_id"`
		Count    int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode vote tally: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.OptionID] = r.Count
	}
	return counts, nil
}
