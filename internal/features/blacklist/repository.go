package blacklist

import (
	"context"
	"time"

	"go-chat/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BlacklistRepository interface {
	Create(ctx context.Context, entry *Entry) error
	Exists(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Entry, error)
	Delete(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type BlacklistRepositoryImpl struct {
	collection *mongo.Collection
}

func NewBlacklistRepository(db *database.MongodbDB) BlacklistRepository {
	return &BlacklistRepositoryImpl{
		collection: db.DB.Collection("blacklist"),
	}
}

func (r *BlacklistRepositoryImpl) Create(ctx context.Context, entry *Entry) error {
	entry.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return err
	}

	entry.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *BlacklistRepositoryImpl) Exists(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"group": groupID, "user": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BlacklistRepositoryImpl) FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Entry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"group": groupID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *BlacklistRepositoryImpl) Delete(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"group": groupID, "user": userID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *BlacklistRepositoryImpl) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"group": groupID})
	return err
}

func (r *BlacklistRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "group", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
