package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

type todoDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	User        bson.ObjectID `bson:"user"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	IsCompleted bool          `bson:"isCompleted"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d *todoDoc) toModel() model.Todo {
	return model.Todo{
		ID:          d.ID.Hex(),
		Owner:       d.User.Hex(),
		Title:       d.Title,
		Description: d.Description,
		IsCompleted: d.IsCompleted,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// TodoRepository is the todos collection.
type TodoRepository struct {
	coll *mongo.Collection
}

var _ repository.TodoRepository = (*TodoRepository)(nil)

// ownedFilter builds {_id: id, user: owner}. ok is false when either value
// is not a valid ObjectID; such an id cannot match anything, so callers
// answer NotFound without a round-trip.
func ownedFilter(owner, id string) (filter bson.D, ok bool) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	uid, err := bson.ObjectIDFromHex(owner)
	if err != nil {
		return nil, false
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "user", Value: uid}}, true
}

// updatePipeline turns patch into a single $set stage.
//
// Absent fields are simply not set. updatedAt is compared inside the same
// stage, where "$title" etc. still refer to the stored values, and only
// moves to now when some present field differs. Values go through $literal
// so a title like "$secret" is stored as text, not read as a field path.
func updatePipeline(patch model.TodoPatch, now time.Time) mongo.Pipeline {
	set := bson.D{}
	unchanged := bson.A{}

	add := func(field string, value any) {
		lit := bson.D{{Key: "$literal", Value: value}}
		set = append(set, bson.E{Key: field, Value: lit})
		unchanged = append(unchanged, bson.D{{Key: "$eq", Value: bson.A{"$" + field, lit}}})
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.IsCompleted != nil {
		add("isCompleted", *patch.IsCompleted)
	}

	set = append(set, bson.E{Key: "updatedAt", Value: bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$and", Value: unchanged}},
		"$updatedAt",
		now,
	}}}})

	return mongo.Pipeline{bson.D{{Key: "$set", Value: set}}}
}

func (r *TodoRepository) ListByOwner(ctx context.Context, owner string) ([]model.Todo, error) {
	todos := make([]model.Todo, 0)

	uid, err := bson.ObjectIDFromHex(owner)
	if err != nil {
		return todos, nil
	}

	cur, err := r.coll.Find(ctx,
		bson.D{{Key: "user", Value: uid}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing todos: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc todoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decoding todo: %w", err)
		}
		todos = append(todos, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterating todos: %w", err)
	}
	return todos, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	uid, err := bson.ObjectIDFromHex(todo.Owner)
	if err != nil {
		return fmt.Errorf("mongo: invalid owner id %q: %w", todo.Owner, err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := todoDoc{
		ID:          bson.NewObjectID(),
		User:        uid,
		Title:       todo.Title,
		Description: todo.Description,
		IsCompleted: todo.IsCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: creating todo: %w", err)
	}

	todo.ID = doc.ID.Hex()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	return nil
}

func (r *TodoRepository) GetOwned(ctx context.Context, owner, id string) (*model.Todo, error) {
	filter, ok := ownedFilter(owner, id)
	if !ok {
		return nil, apperror.NotFound("todo", id)
	}

	var doc todoDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if isNoDocuments(err) {
		return nil, apperror.NotFound("todo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: getting todo %s: %w", id, err)
	}
	t := doc.toModel()
	return &t, nil
}

// UpdateOwned is a single FindOneAndUpdate returning the post-update
// document.
func (r *TodoRepository) UpdateOwned(ctx context.Context, owner, id string, patch model.TodoPatch) (*model.Todo, error) {
	filter, ok := ownedFilter(owner, id)
	if !ok {
		return nil, apperror.NotFound("todo", id)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	var doc todoDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, updatePipeline(patch, now),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if isNoDocuments(err) {
		return nil, apperror.NotFound("todo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: updating todo %s: %w", id, err)
	}
	t := doc.toModel()
	return &t, nil
}

func (r *TodoRepository) DeleteOwned(ctx context.Context, owner, id string) error {
	filter, ok := ownedFilter(owner, id)
	if !ok {
		return apperror.NotFound("todo", id)
	}

	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("mongo: deleting todo %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("todo", id)
	}
	return nil
}
