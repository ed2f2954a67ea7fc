package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"saultochat/internal/model/auth"
)

// MongoUserStore stores users in the users collection. IDs are UUID
// strings, so no ObjectID conversion is needed anywhere.
type MongoUserStore struct {
	collection *mongo.Collection
}

// NewMongoUserStore creates the store over the users collection.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{
		collection: db.Collection("users"),
	}
}

var _ UserStore = (*MongoUserStore)(nil)

// Create inserts a new user.
func (s *MongoUserStore) Create(ctx context.Context, user *auth.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.collection.InsertOne(ctx, user)
	return err
}

// FindByID looks a user up by id.
func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail looks a user up by email.
func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	var user auth.User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile refreshes provider-sourced fields after a login.
func (s *MongoUserStore) UpdateProfile(ctx context.Context, user *auth.User) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":         user.Name,
		"job_title":    user.JobTitle,
		"department":   user.Department,
		"microsoft_id": user.MicrosoftID,
		"last_login":   user.LastLogin,
		"updated_at":   now,
	}}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole changes a user's role.
func (s *MongoUserStore) UpdateRole(ctx context.Context, id string, role auth.UserRole) error {
	update := bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all users, newest first.
func (s *MongoUserStore) List(ctx context.Context) ([]*auth.User, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*auth.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountAdmins reports how many admin accounts exist.
func (s *MongoUserStore) CountAdmins(ctx context.Context) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{"role": auth.RoleAdmin})
}
