package mongo

import (
	"context"
	"errors"

	"planfit/workout-app/internal/domain"
	"planfit/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoPlanExerciseRepository implements repository.PlanExerciseRepository
type mongoPlanExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanExerciseRepository creates a new PlanExercise repository backed by MongoDB.
func NewMongoPlanExerciseRepository(db *mongo.Database) repository.PlanExerciseRepository {
	return &mongoPlanExerciseRepository{
		collection: db.Collection(planExerciseCollectionName),
	}
}

// Create inserts a new plan-exercise link.
func (r *mongoPlanExerciseRepository) Create(ctx context.Context, link *domain.PlanExercise) (primitive.ObjectID, error) {
	if link.WorkoutPlanID == primitive.NilObjectID || link.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("link requires workoutPlanId and exerciseId")
	}

	link.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted link ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single link by its ID.
func (r *mongoPlanExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanExercise, error) {
	var link domain.PlanExercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// GetByPlanID retrieves all links of a plan, hidden included, ordered by
// order index ascending.
func (r *mongoPlanExerciseRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanExercise, error) {
	var links []domain.PlanExercise
	findOptions := options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"workoutPlanId": planID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

// ExistsForPlanAndExercise reports whether a link already exists for the
// (plan, exercise) pair. Pre-insert uniqueness check; the unique index below
// backs it at the database level.
func (r *mongoPlanExerciseRepository) ExistsForPlanAndExercise(ctx context.Context, planID, exerciseID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"workoutPlanId": planID,
		"exerciseId":    exerciseID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetHidden flips the hidden flag on one link. Order indexes are left alone;
// renumbering on hide/unhide is the service layer's call.
func (r *mongoPlanExerciseRepository) SetHidden(ctx context.Context, id primitive.ObjectID, hidden bool) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isHidden": hidden}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateOrderIndexes applies a batch of order index reassignments in one
// bulk write.
func (r *mongoPlanExerciseRepository) UpdateOrderIndexes(ctx context.Context, updates []repository.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.LinkID}).
			SetUpdate(bson.M{"$set": bson.M{"orderIndex": u.OrderIndex}}))
	}

	_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

// Delete removes a single link.
func (r *mongoPlanExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByPlanID removes all links of a plan (plan deletion cascade).
func (r *mongoPlanExerciseRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutPlanId": planID})
	return err
}

// DeleteByExerciseID removes all links referencing an exercise (exercise
// deletion cascade).
func (r *mongoPlanExerciseRepository) DeleteByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"exerciseId": exerciseID})
	return err
}

// EnsurePlanExerciseIndexes creates necessary indexes. Call during startup.
func EnsurePlanExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Exactly one link per (plan, exercise) pair.
			Keys:    bson.D{{Key: "workoutPlanId", Value: 1}, {Key: "exerciseId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Ordered listing within a plan.
			Keys:    bson.D{{Key: "workoutPlanId", Value: 1}, {Key: "orderIndex", Value: 1}},
			Options: options.Index(),
		},
		{
			// Exercise-deletion cascade.
			Keys:    bson.D{{Key: "exerciseId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
