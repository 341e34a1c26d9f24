package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"trivia-events-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nodeProgress is keyed by the stringified node index so single nodes can be addressed
// with dotted paths ("nodeProgress.3.completedAt") in conditional updates.
type progressDoc struct {
	ID                          primitive.ObjectID         `bson:"_id,omitempty"`
	UserID                      string                     `bson:"userId"`
	EventID                     string                     `bson:"eventId"`
	CurrentNodeIndex            int                        `bson:"currentNodeIndex"`
	NodeProgress                map[string]nodeProgressDoc `bson:"nodeProgress"`
	FullCompletionRewardClaimed bool                       `bson:"fullCompletionRewardClaimed"`
	PendingGrants               []domain.RewardGrant       `bson:"pendingGrants"`
	CreatedAt                   time.Time                  `bson:"createdAt"`
	UpdatedAt                   time.Time                  `bson:"updatedAt"`
}

type nodeProgressDoc struct {
	Index             int        `bson:"index"`
	UnlockedAt        *time.Time `bson:"unlockedAt,omitempty"`
	CompletedAt       *time.Time `bson:"completedAt,omitempty"`
	Attempts          int        `bson:"attempts"`
	QuestionsCorrect  int        `bson:"questionsCorrect"`
	BestScore         int        `bson:"bestScore"`
	TrophiesCollected int        `bson:"trophiesCollected"`
	LastAttemptAt     *time.Time `bson:"lastAttemptAt,omitempty"`
}

// ProgressStore persists UserWeeklyEventProgress documents. Each method issues a single
// update whose filter encodes its precondition.
type ProgressStore struct {
	collection *mongo.Collection
}

func NewProgressStore(db *mongo.Database) *ProgressStore {
	return &ProgressStore{collection: db.Collection(progressCollection)}
}

func keyFilter(key domain.ProgressKey) bson.M {
	return bson.M{"userId": key.UserID, "eventId": key.EventID}
}

func nodePath(index int) string {
	return "nodeProgress." + strconv.Itoa(index)
}

func (s *ProgressStore) GetOrCreate(ctx context.Context, key domain.ProgressKey, now time.Time) (domain.Progress, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"currentNodeIndex": 0,
		"nodeProgress": bson.M{"0": bson.M{
			"index":             0,
			"unlockedAt":        now,
			"attempts":          0,
			"questionsCorrect":  0,
			"bestScore":         0,
			"trophiesCollected": 0,
		}},
		"fullCompletionRewardClaimed": false,
		"pendingGrants":               bson.A{},
		"createdAt":                   now,
		"updatedAt":                   now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc progressDoc
	err := s.collection.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an upsert race with a concurrent first read; the document now exists.
		return s.Get(ctx, key)
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("upsert progress: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *ProgressStore) Get(ctx context.Context, key domain.ProgressKey) (domain.Progress, error) {
	var doc progressDoc
	err := s.collection.FindOne(ctx, keyFilter(key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("find progress: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *ProgressStore) RecordAttempt(ctx context.Context, key domain.ProgressKey, index int, result domain.NodeResult, now time.Time) error {
	if err := s.ensureUnlocked(ctx, key, index, now); err != nil {
		return err
	}
	p := nodePath(index)
	correct, score := result.Values()
	update := bson.M{
		"$inc": bson.M{p + ".attempts": 1},
		"$max": bson.M{p + ".questionsCorrect": correct, p + ".bestScore": score},
		"$set": bson.M{p + ".lastAttemptAt": now, "updatedAt": now},
	}
	res, err := s.collection.UpdateOne(ctx, keyFilter(key), update)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProgressNotFound
	}
	return nil
}

func (s *ProgressStore) MarkCompleted(ctx context.Context, key domain.ProgressKey, index int, grant domain.RewardGrant, now time.Time) (bool, error) {
	p := nodePath(index)
	filter := keyFilter(key)
	filter[p+".completedAt"] = nil // matches missing or null

	update := bson.M{"$set": bson.M{
		p + ".index":             index,
		p + ".completedAt":       now,
		p + ".trophiesCollected": grant.Reward.Trophies,
		"updatedAt":              now,
	}}
	if !grant.Reward.IsZero() {
		update["$push"] = bson.M{"pendingGrants": grant}
	}
	res, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *ProgressStore) Advance(ctx context.Context, key domain.ProgressKey, from, to int, now time.Time) error {
	// Unlock before moving the pointer so readers never see a locked current node.
	if err := s.ensureUnlocked(ctx, key, to, now); err != nil {
		return err
	}
	filter := keyFilter(key)
	filter["currentNodeIndex"] = from
	_, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"currentNodeIndex": to, "updatedAt": now}})
	if err != nil {
		return fmt.Errorf("advance: %w", err)
	}
	return nil
}

func (s *ProgressStore) ClaimFullCompletion(ctx context.Context, key domain.ProgressKey, grant domain.RewardGrant, now time.Time) (bool, error) {
	filter := keyFilter(key)
	filter["fullCompletionRewardClaimed"] = bson.M{"$ne": true}
	update := bson.M{"$set": bson.M{"fullCompletionRewardClaimed": true, "updatedAt": now}}
	if !grant.Reward.IsZero() {
		update["$push"] = bson.M{"pendingGrants": grant}
	}
	res, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("claim full completion: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *ProgressStore) ResolveGrant(ctx context.Context, key domain.ProgressKey, grantID string) error {
	_, err := s.collection.UpdateOne(ctx, keyFilter(key), bson.M{"$pull": bson.M{"pendingGrants": bson.M{"id": grantID}}})
	if err != nil {
		return fmt.Errorf("resolve grant: %w", err)
	}
	return nil
}

// ensureUnlocked sets unlockedAt on the node entry only if it has none yet.
func (s *ProgressStore) ensureUnlocked(ctx context.Context, key domain.ProgressKey, index int, now time.Time) error {
	p := nodePath(index)
	filter := keyFilter(key)
	filter[p+".unlockedAt"] = bson.M{"$exists": false}
	_, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		p + ".index":      index,
		p + ".unlockedAt": now,
	}})
	if err != nil {
		return fmt.Errorf("unlock node %d: %w", index, err)
	}
	return nil
}

func (d progressDoc) toDomain() domain.Progress {
	p := domain.Progress{
		ID:                          d.ID.Hex(),
		UserID:                      d.UserID,
		EventID:                     d.EventID,
		CurrentNodeIndex:            d.CurrentNodeIndex,
		NodeProgress:                make([]domain.NodeProgress, 0, len(d.NodeProgress)),
		FullCompletionRewardClaimed: d.FullCompletionRewardClaimed,
		PendingGrants:               d.PendingGrants,
		CreatedAt:                   d.CreatedAt,
		UpdatedAt:                   d.UpdatedAt,
	}
	for k, np := range d.NodeProgress {
		index := np.Index
		if i, err := strconv.Atoi(k); err == nil {
			index = i
		}
		p.NodeProgress = append(p.NodeProgress, domain.NodeProgress{
			Index:             index,
			UnlockedAt:        np.UnlockedAt,
			CompletedAt:       np.CompletedAt,
			Attempts:          np.Attempts,
			QuestionsCorrect:  np.QuestionsCorrect,
			BestScore:         np.BestScore,
			TrophiesCollected: np.TrophiesCollected,
			LastAttemptAt:     np.LastAttemptAt,
		})
	}
	p.SortNodes()
	return p
}
