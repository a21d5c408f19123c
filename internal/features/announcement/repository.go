package announcement

import (
	"context"
	"time"

	"go-chat/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AnnouncementRepository interface {
	Create(ctx context.Context, a *Announcement) error
	CreateMany(ctx context.Context, items []Announcement) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Announcement, error)
	FindByRecipient(ctx context.Context, recipient primitive.ObjectID) ([]Announcement, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status Status) error
	UpdateInvitation(ctx context.Context, id primitive.ObjectID, invStatus InvitationStatus) error
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error
}

type AnnouncementRepositoryImpl struct {
	collection *mongo.Collection
}

func NewAnnouncementRepository(db *database.MongodbDB) AnnouncementRepository {
	return &AnnouncementRepositoryImpl{
		collection: db.DB.Collection("announcements"),
	}
}

func (r *AnnouncementRepositoryImpl) Create(ctx context.Context, a *Announcement) error {
	a.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		return err
	}
	a.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *AnnouncementRepositoryImpl) CreateMany(ctx context.Context, items []Announcement) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(items))
	for i := range items {
		items[i].CreatedAt = now
		docs = append(docs, items[i])
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *AnnouncementRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Announcement, error) {
	var a Announcement
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepositoryImpl) FindByRecipient(ctx context.Context, recipient primitive.ObjectID) ([]Announcement, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"recipient": recipient},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []Announcement
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *AnnouncementRepositoryImpl) UpdateStatus(ctx context.Context, id primitive.ObjectID, status Status) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}})
	return err
}

func (r *AnnouncementRepositoryImpl) UpdateInvitation(ctx context.Context, id primitive.ObjectID, invStatus InvitationStatus) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"invitation_status": invStatus, "status": StatusResponded}})
	return err
}

func (r *AnnouncementRepositoryImpl) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"group": groupID})
	return err
}
