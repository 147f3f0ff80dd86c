package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/jobdeckhq/jobdeck/internal/models"
	"github.com/jobdeckhq/jobdeck/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApplicationRepository interface {
	Insert(ctx context.Context, a *models.Application) error
	List(ctx context.Context, userID primitive.ObjectID, status models.Status) ([]models.Application, error)
	GetByID(ctx context.Context, userID, id primitive.ObjectID) (*models.Application, error)
	FullDescription(ctx context.Context, userID, id primitive.ObjectID) (string, error)
	Update(ctx context.Context, userID, id primitive.ObjectID, set bson.M, timeline *models.TimelineEntry) (*models.Application, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.Application, error)
	Stats(ctx context.Context, userID primitive.ObjectID) ([]models.StatusStat, error)
}

type applicationRepo struct {
	col *mongo.Collection
}

func NewApplicationRepo(db *mongo.Database) ApplicationRepository {
	return &applicationRepo{col: db.Collection("applications")}
}

func (r *applicationRepo) Insert(ctx context.Context, a *models.Application) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	res, err := r.col.InsertOne(ctx, a)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid
	}
	return nil
}

// List returns the user's applications, most recently updated first. The full
// description is projected away; the truncated preview stands in for it.
func (r *applicationRepo) List(ctx context.Context, userID primitive.ObjectID, status models.Status) ([]models.Application, error) {
	filter := bson.M{"user": userID}
	if status != "" {
		filter["status"] = status
	}

	cur, err := r.col.Find(ctx, filter,
		options.Find().
			SetProjection(bson.M{"description.full": 0}).
			SetSort(bson.D{{Key: "updated_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	apps := []models.Application{}
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// GetByID filters on owner as well as id, so another user's application is
// indistinguishable from a missing one.
func (r *applicationRepo) GetByID(ctx context.Context, userID, id primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	err := r.col.FindOne(ctx, bson.M{"_id": id, "user": userID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

func (r *applicationRepo) FullDescription(ctx context.Context, userID, id primitive.ObjectID) (string, error) {
	var a models.Application
	err := r.col.FindOne(ctx,
		bson.M{"_id": id, "user": userID},
		options.FindOne().SetProjection(bson.M{"description.full": 1}),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", utils.ErrNotFound
	}
	return a.Description.Full, err
}

// Update applies a prebuilt $set and, when a status change was requested,
// appends the timeline entry in the same write.
func (r *applicationRepo) Update(ctx context.Context, userID, id primitive.ObjectID, set bson.M, timeline *models.TimelineEntry) (*models.Application, error) {
	set["updated_at"] = time.Now().UTC()

	update := bson.M{"$set": set}
	if timeline != nil {
		update["$push"] = bson.M{"timeline": timeline}
	}

	var a models.Application
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

// Delete removes the record and returns it so the caller can clean up the
// attached resume object.
func (r *applicationRepo) Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id, "user": userID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

func (r *applicationRepo) Stats(ctx context.Context, userID primitive.ObjectID) ([]models.StatusStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":             "$status",
			"count":           bson.M{"$sum": 1},
			"avg_match_score": bson.M{"$avg": "$match_score.percentage"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stats := []models.StatusStat{}
	if err := cur.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
