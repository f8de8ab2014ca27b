// Package mongo implements the repository interfaces on MongoDB with the
// official v2 driver.
//
// DOCUMENT LAYOUT:
// Collections and field names match what the browser client already knows:
// "users" {name, email, password, createdAt, updatedAt} and
// "todos" {user, title, description, isCompleted, createdAt, updatedAt}.
// IDs are ObjectIDs and leave this package as 24-char hex strings.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"

	"github.com/sakif/todolist/internal/repository"
)

// DefaultDatabase is used when the URI names no database.
const DefaultDatabase = "todolist"

const (
	usersCollection = "users"
	todosCollection = "todos"
)

// Store is a connected MongoDB client plus the two repositories.
type Store struct {
	client *mongo.Client
	users  *UserRepository
	todos  *TodoRepository
}

var _ repository.Store = (*Store)(nil)

// Open connects to uri, checks the server answers and makes sure the
// indexes exist.
func Open(ctx context.Context, uri string) (*Store, error) {
	dbName, err := databaseName(uri)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging server: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client: client,
		users:  &UserRepository{coll: db.Collection(usersCollection)},
		todos:  &TodoRepository{coll: db.Collection(todosCollection)},
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// databaseName extracts the database from the URI path, falling back to
// DefaultDatabase.
func databaseName(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("mongo: parsing uri: %w", err)
	}
	if cs.Database == "" {
		return DefaultDatabase, nil
	}
	return cs.Database, nil
}

// EnsureIndexes creates the unique email index and the per-owner todo index.
// CreateOne is a no-op when an identical index already exists.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo: creating users email index: %w", err)
	}

	_, err = s.todos.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("todos_user_created"),
	})
	if err != nil {
		return fmt.Errorf("mongo: creating todos owner index: %w", err)
	}
	return nil
}

func (s *Store) Users() repository.UserRepository { return s.users }
func (s *Store) Todos() repository.TodoRepository { return s.todos }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo: ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// isNoDocuments reports a FindOne/FindOneAndUpdate miss.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
