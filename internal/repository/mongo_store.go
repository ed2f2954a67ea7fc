package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"saultochat/internal/model"
)

// MongoConversationStore is the production ConversationStore. Appends
// rely on Mongo's atomic single-document update, so no in-process
// locking is needed.
type MongoConversationStore struct {
	collection *mongo.Collection
}

// NewMongoConversationStore creates the store over the conversations
// collection.
func NewMongoConversationStore(db *mongo.Database) *MongoConversationStore {
	return &MongoConversationStore{
		collection: db.Collection("conversations"),
	}
}

var _ ConversationStore = (*MongoConversationStore)(nil)

// ownerFilter scopes every operation to the calling owner. A foreign id
// matches nothing, which surfaces as ErrNotFound.
func ownerFilter(id, ownerID string) bson.M {
	return bson.M{"_id": id, "user_id": ownerID}
}

// GetOrCreate fetches by id, or inserts an empty conversation when no
// id is supplied.
func (s *MongoConversationStore) GetOrCreate(ctx context.Context, id, ownerID string) (*model.Conversation, error) {
	if id != "" {
		return s.Get(ctx, id, ownerID)
	}

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    ownerID,
		Title:     NewConversationTitle,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.collection.InsertOne(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get fetches the owner's conversation by id.
func (s *MongoConversationStore) Get(ctx context.Context, id, ownerID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.collection.FindOne(ctx, ownerFilter(id, ownerID)).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// AppendMessages pushes messages in order and bumps updated_at.
func (s *MongoConversationStore) AppendMessages(ctx context.Context, id, ownerID string, msgs []model.Message) (*model.Conversation, error) {
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": msgs}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var conv model.Conversation
	err := s.collection.FindOneAndUpdate(ctx, ownerFilter(id, ownerID), update, opts).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// List returns sidebar summaries, most recently updated first.
func (s *MongoConversationStore) List(ctx context.Context, ownerID string) ([]model.ConversationSummary, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"messages": bson.M{"$slice": 1}, "user_id": 1, "pinned": 1, "updated_at": 1})

	cursor, err := s.collection.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []*model.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}

	summaries := make([]model.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summaries = append(summaries, conv.Summary())
	}
	return summaries, nil
}

// Delete removes the owner's conversation.
func (s *MongoConversationStore) Delete(ctx context.Context, id, ownerID string) error {
	result, err := s.collection.DeleteOne(ctx, ownerFilter(id, ownerID))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPinned toggles the pinned flag.
func (s *MongoConversationStore) SetPinned(ctx context.Context, id, ownerID string, pinned bool) error {
	return s.setField(ctx, id, ownerID, bson.M{"pinned": pinned})
}

// SetTitle renames the conversation.
func (s *MongoConversationStore) SetTitle(ctx context.Context, id, ownerID, title string) error {
	return s.setField(ctx, id, ownerID, bson.M{"title": title})
}

// setField updates metadata without bumping updated_at; only appends
// affect the recency ordering.
func (s *MongoConversationStore) setField(ctx context.Context, id, ownerID string, fields bson.M) error {
	result, err := s.collection.UpdateOne(ctx, ownerFilter(id, ownerID), bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
