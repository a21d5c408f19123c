package group

import (
	"context"
	"time"

	"go-chat/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type RequestRepository interface {
	Create(ctx context.Context, request *GroupRequest) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*GroupRequest, error)
	FindPending(ctx context.Context, groupID, userID primitive.ObjectID) (*GroupRequest, error)
	FindPendingByGroup(ctx context.Context, groupID primitive.ObjectID) ([]GroupRequest, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status RequestStatus) error
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error
}

type RequestRepositoryImpl struct {
	collection *mongo.Collection
}

func NewRequestRepository(db *database.MongodbDB) RequestRepository {
	return &RequestRepositoryImpl{
		collection: db.DB.Collection("group_requests"),
	}
}

func (r *RequestRepositoryImpl) Create(ctx context.Context, request *GroupRequest) error {
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, request)
	if err != nil {
		return err
	}

	request.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *RequestRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*GroupRequest, error) {
	var request GroupRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepositoryImpl) FindPending(ctx context.Context, groupID, userID primitive.ObjectID) (*GroupRequest, error) {
	var request GroupRequest
	err := r.collection.FindOne(ctx, bson.M{
		"group":  groupID,
		"user":   userID,
		"status": RequestPending,
	}).Decode(&request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepositoryImpl) FindPendingByGroup(ctx context.Context, groupID primitive.ObjectID) ([]GroupRequest, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"group": groupID, "status": RequestPending})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []GroupRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *RequestRepositoryImpl) UpdateStatus(ctx context.Context, id primitive.ObjectID, status RequestStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *RequestRepositoryImpl) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"group": groupID})
	return err
}
