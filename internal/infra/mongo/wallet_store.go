package mongo

import (
	"context"
	"errors"
	"fmt"

	"trivia-events-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WalletStore credits the stars/gems balances on user documents. appliedGrants records
// every grant ID already credited so a replayed grant is a no-op.
type WalletStore struct {
	collection *mongo.Collection
}

func NewWalletStore(db *mongo.Database) *WalletStore {
	return &WalletStore{collection: db.Collection(usersCollection)}
}

func (s *WalletStore) Apply(ctx context.Context, userID string, grant domain.RewardGrant) (bool, error) {
	r := grant.Reward.Clamp()
	if r.IsZero() {
		return false, nil
	}
	filter := bson.M{"_id": userKey(userID), "appliedGrants": bson.M{"$ne": grant.ID}}
	update := bson.M{
		"$inc":  bson.M{"stars": r.Trophies, "gems": r.Gems},
		"$push": bson.M{"appliedGrants": grant.ID},
	}
	// Upsert creates the wallet for users this service has not seen. When the user exists
	// and already holds the grant, the upsert collides on _id and nothing is applied.
	res, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("apply grant %s: %w", grant.ID, err)
	}
	return res.ModifiedCount == 1 || res.UpsertedCount == 1, nil
}

func (s *WalletStore) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	var b domain.Balance
	opts := options.FindOne().SetProjection(bson.M{"stars": 1, "gems": 1})
	err := s.collection.FindOne(ctx, bson.M{"_id": userKey(userID)}, opts).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Balance{}, nil
	}
	if err != nil {
		return domain.Balance{}, fmt.Errorf("load balance: %w", err)
	}
	return b, nil
}
