package message

import (
	"context"
	"regexp"
	"time"

	"go-chat/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SearchQuery bounds a message search. Empty keyword matches everything;
// nil bounds are open-ended.
type SearchQuery struct {
	Keyword string
	Start   *time.Time
	End     *time.Time
}

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Message, error)
	FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Message, error)
	Search(ctx context.Context, groupID primitive.ObjectID, query SearchQuery) ([]Message, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error
	MarkAllRead(ctx context.Context, groupID, userID primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error
}

type MessageRepositoryImpl struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *database.MongodbDB) MessageRepository {
	return &MessageRepositoryImpl{
		collection: db.DB.Collection("messages"),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *Message) error {
	message.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return err
	}

	message.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MessageRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Message, error) {
	var message Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepositoryImpl) FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"group": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepositoryImpl) Search(ctx context.Context, groupID primitive.ObjectID, query SearchQuery) ([]Message, error) {
	filter := bson.M{"group": groupID}

	if query.Keyword != "" {
		filter["content"] = bson.M{"$regex": primitive.Regex{
			Pattern: regexp.QuoteMeta(query.Keyword),
			Options: "i",
		}}
	}

	if query.Start != nil || query.End != nil {
		createdAt := bson.M{}
		if query.Start != nil {
			createdAt["$gte"] = *query.Start
		}
		if query.End != nil {
			createdAt["$lte"] = *query.End
		}
		filter["created_at"] = createdAt
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flips one recipient's receipt with a positional update so two
// users marking the same message never clobber each other.
func (r *MessageRepositoryImpl) MarkRead(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "read_status.user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"read_status.$.read":    true,
			"read_status.$.read_at": at,
		},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *MessageRepositoryImpl) MarkAllRead(ctx context.Context, groupID, userID primitive.ObjectID, at time.Time) error {
	filter := bson.M{"group": groupID, "read_status.user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"read_status.$.read":    true,
			"read_status.$.read_at": at,
		},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

func (r *MessageRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MessageRepositoryImpl) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"group": groupID})
	return err
}
