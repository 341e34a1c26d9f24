package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trivia-events-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type eventDoc struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	WeekKey              string             `bson:"weekKey"`
	Title                string             `bson:"title,omitempty"`
	Theme                string             `bson:"theme,omitempty"`
	StartsAt             time.Time          `bson:"startsAt"`
	EndsAt               time.Time          `bson:"endsAt"`
	IsActive             bool               `bson:"isActive"`
	Nodes                []nodeDoc          `bson:"nodes"`
	FullCompletionReward domain.Reward      `bson:"fullCompletionReward"`
	UpdatedAt            time.Time          `bson:"updatedAt"`
}

type nodeDoc struct {
	Index            int           `bson:"index"`
	Type             string        `bson:"type"`
	Title            string        `bson:"title,omitempty"`
	CompletionReward domain.Reward `bson:"completionReward"`
	Config           bson.Raw      `bson:"config,omitempty"`
}

// EventStore reads and writes weekly events.
type EventStore struct {
	collection *mongo.Collection
}

func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{collection: db.Collection(eventsCollection)}
}

// ActiveEvent returns the event live at now. Overlaps resolve to the lowest weekKey.
func (s *EventStore) ActiveEvent(ctx context.Context, now time.Time) (domain.WeeklyEvent, error) {
	filter := bson.M{
		"isActive": true,
		"startsAt": bson.M{"$lte": now},
		"endsAt":   bson.M{"$gt": now},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "weekKey", Value: 1}})
	var doc eventDoc
	err := s.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.WeeklyEvent{}, domain.ErrNoActiveEvent
	}
	if err != nil {
		return domain.WeeklyEvent{}, fmt.Errorf("find active event: %w", err)
	}
	return doc.toDomain()
}

func (s *EventStore) ByWeekKey(ctx context.Context, weekKey string) (domain.WeeklyEvent, error) {
	var doc eventDoc
	err := s.collection.FindOne(ctx, bson.M{"weekKey": weekKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.WeeklyEvent{}, domain.ErrEventNotFound
	}
	if err != nil {
		return domain.WeeklyEvent{}, fmt.Errorf("find event %s: %w", weekKey, err)
	}
	return doc.toDomain()
}

// Upsert validates the event and replaces the stored document with the same weekKey.
func (s *EventStore) Upsert(ctx context.Context, event domain.WeeklyEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	doc, err := eventToDoc(event)
	if err != nil {
		return err
	}
	doc.ID = primitive.NilObjectID
	doc.UpdatedAt = time.Now()
	_, err = s.collection.ReplaceOne(ctx, bson.M{"weekKey": event.WeekKey}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert event %s: %w", event.WeekKey, err)
	}
	return nil
}

func eventToDoc(e domain.WeeklyEvent) (eventDoc, error) {
	doc := eventDoc{
		WeekKey:              e.WeekKey,
		Title:                e.Title,
		Theme:                e.Theme,
		StartsAt:             e.StartsAt,
		EndsAt:               e.EndsAt,
		IsActive:             e.IsActive,
		Nodes:                make([]nodeDoc, 0, len(e.Nodes)),
		FullCompletionReward: e.FullCompletionReward,
	}
	for _, n := range e.Nodes {
		raw, err := bson.Marshal(n.Config)
		if err != nil {
			return eventDoc{}, fmt.Errorf("encode node %d config: %w", n.Index, err)
		}
		doc.Nodes = append(doc.Nodes, nodeDoc{
			Index:            n.Index,
			Type:             string(n.Type),
			Title:            n.Title,
			CompletionReward: n.CompletionReward,
			Config:           raw,
		})
	}
	return doc, nil
}

func (d eventDoc) toDomain() (domain.WeeklyEvent, error) {
	event := domain.WeeklyEvent{
		ID:                   d.ID.Hex(),
		WeekKey:              d.WeekKey,
		Title:                d.Title,
		Theme:                d.Theme,
		StartsAt:             d.StartsAt,
		EndsAt:               d.EndsAt,
		IsActive:             d.IsActive,
		Nodes:                make([]domain.Node, 0, len(d.Nodes)),
		FullCompletionReward: d.FullCompletionReward,
	}
	for _, n := range d.Nodes {
		raw := n.Config
		cfg, err := domain.DecodeNodeConfig(domain.NodeType(n.Type), func(target any) error {
			if len(raw) == 0 {
				return nil
			}
			return bson.Unmarshal(raw, target)
		})
		if err != nil {
			return domain.WeeklyEvent{}, fmt.Errorf("event %s node %d: %w", d.WeekKey, n.Index, err)
		}
		event.Nodes = append(event.Nodes, domain.Node{
			Index:            n.Index,
			Type:             domain.NodeType(n.Type),
			Title:            n.Title,
			CompletionReward: n.CompletionReward,
			Config:           cfg,
		})
	}
	return event, nil
}
