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

const sessionSetCollectionName = "workout_session_sets"

// mongoSessionSetRepository implements repository.SessionSetRepository
type mongoSessionSetRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionSetRepository creates a new SessionSet repository backed by MongoDB.
func NewMongoSessionSetRepository(db *mongo.Database) repository.SessionSetRepository {
	return &mongoSessionSetRepository{
		collection: db.Collection(sessionSetCollectionName),
	}
}

// Create inserts a single set row (the lazy path, when a value is first
// entered into a cell that has no row yet).
func (r *mongoSessionSetRepository) Create(ctx context.Context, set *domain.SessionSet) (primitive.ObjectID, error) {
	if set.WorkoutSessionID == primitive.NilObjectID || set.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("set requires workoutSessionId and exerciseId")
	}
	if set.SetNumber < 1 || set.SetNumber > domain.SetsPerExercise {
		return primitive.NilObjectID, errors.New("set number out of range")
	}

	set.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted set ID")
	}
	return insertedID, nil
}

// CreateMany inserts a batch of set rows (the eager path: blank grid on
// session creation, or back-fill when an exercise joins a plan that already
// has sessions).
func (r *mongoSessionSetRepository) CreateMany(ctx context.Context, sets []domain.SessionSet) error {
	if len(sets) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(sets))
	for i := range sets {
		if sets[i].ID == primitive.NilObjectID {
			sets[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, sets[i])
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

// GetBySessionID retrieves all set rows of one session.
func (r *mongoSessionSetRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SessionSet, error) {
	return r.findSets(ctx, bson.M{"workoutSessionId": sessionID})
}

// GetBySessionIDs retrieves the set rows of several sessions at once.
func (r *mongoSessionSetRepository) GetBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.SessionSet, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	return r.findSets(ctx, bson.M{"workoutSessionId": bson.M{"$in": sessionIDs}})
}

func (r *mongoSessionSetRepository) findSets(ctx context.Context, filter bson.M) ([]domain.SessionSet, error) {
	var sets []domain.SessionSet
	findOptions := options.Find().SetSort(bson.D{{Key: "exerciseId", Value: 1}, {Key: "setNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// FindCell locates the row for one (session, exercise, set-number) cell.
func (r *mongoSessionSetRepository) FindCell(ctx context.Context, sessionID, exerciseID primitive.ObjectID, setNumber int) (*domain.SessionSet, error) {
	var set domain.SessionSet
	filter := bson.M{
		"workoutSessionId": sessionID,
		"exerciseId":       exerciseID,
		"setNumber":        setNumber,
	}

	err := r.collection.FindOne(ctx, filter).Decode(&set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

// UpdateReps sets the reps value of one row. nil clears the cell.
func (r *mongoSessionSetRepository) UpdateReps(ctx context.Context, id primitive.ObjectID, reps *int) error {
	return r.updateField(ctx, id, "reps", reps)
}

// UpdateWeight sets the weight value of one row. nil clears the cell.
func (r *mongoSessionSetRepository) UpdateWeight(ctx context.Context, id primitive.ObjectID, weight *float64) error {
	return r.updateField(ctx, id, "weight", weight)
}

func (r *mongoSessionSetRepository) updateField(ctx context.Context, id primitive.ObjectID, field string, value interface{}) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteBySessionIDs removes the set rows of the given sessions (session
// cascade on plan deletion). Set rows are never deleted individually; hidden
// exercises keep their historical rows.
func (r *mongoSessionSetRepository) DeleteBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutSessionId": bson.M{"$in": sessionIDs}})
	return err
}

// EnsureSessionSetIndexes creates necessary indexes. Call during startup.
func EnsureSessionSetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One row per (session, exercise, set-number) cell.
			Keys: bson.D{
				{Key: "workoutSessionId", Value: 1},
				{Key: "exerciseId", Value: 1},
				{Key: "setNumber", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
