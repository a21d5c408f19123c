package logs

import (
	"context"
	"time"

	common_models "go-chat/internal/common/models"
	"go-chat/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LogQuery struct {
	Level string
	Actor string
	Limit int64
}

type LogRepository interface {
	Find(ctx context.Context, query LogQuery) ([]common_models.Log, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type LogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewLogRepository(db *database.MongodbDB) LogRepository {
	return &LogRepositoryImpl{
		collection: db.DB.Collection("logs"),
	}
}

func (r *LogRepositoryImpl) Find(ctx context.Context, query LogQuery) ([]common_models.Log, error) {
	filter := bson.M{}
	if query.Level != "" {
		filter["log_level_id"] = levelID(query.Level)
	}
	if query.Actor != "" {
		filter["actor_id"] = query.Actor
	}

	limit := query.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_on_utc", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []common_models.Log
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *LogRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{
		"created_on_utc": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func levelID(level string) int {
	switch level {
	case "debug":
		return 1
	case "info":
		return 2
	case "warn":
		return 3
	case "error":
		return 4
	default:
		return 2
	}
}
