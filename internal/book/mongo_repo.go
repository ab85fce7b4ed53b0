package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxWriteAttempts bounds the optimistic retry loop when a concurrent
// writer touched the document between load and write.
const maxWriteAttempts = 3

var errConflict = errors.New("book modified concurrently")

type mongoBook struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      string             `bson:"user"`
	Title     string             `bson:"title"`
	Author    string             `bson:"author"`
	Genre     string             `bson:"genre"`
	Status    Status             `bson:"status"`
	CoverURL  string             `bson:"coverUrl"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
	// Version increments on every write and guards conditional updates.
	Version int64 `bson:"version"`
}

func (m mongoBook) toBook() Book {
	return Book{
		ID:        m.ID.Hex(),
		OwnerID:   m.User,
		Title:     m.Title,
		Author:    m.Author,
		Genre:     m.Genre,
		Status:    m.Status,
		CoverURL:  m.CoverURL,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MongoRepo stores one document per book. Writes are conditional on the
// owner and the version read during the ownership check.
type MongoRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{coll: db.Collection("books"), timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// EnsureIndexes creates the owner listing index.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.Indexes().CreateOne(timeoutCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

// guard matches the document only if nothing wrote to it since m was read.
// Documents written before versioning have no version field.
func (m *mongoBook) guard() bson.M {
	filter := bson.M{"_id": m.ID, "user": m.User, "version": m.Version}
	if m.Version == 0 {
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
	}
	return filter
}

func mongoNow() time.Time {
	// BSON dates keep millisecond precision.
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *MongoRepo) ListByOwner(ctx context.Context, ownerID string) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(timeoutCtx, bson.M{"user": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(timeoutCtx)

	out := make([]Book, 0)
	for cur.Next(timeoutCtx) {
		var m mongoBook
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m.toBook())
	}
	return out, cur.Err()
}

func (r *MongoRepo) Create(ctx context.Context, b *Book) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	now := mongoNow()
	m := mongoBook{
		ID:        primitive.NewObjectID(),
		User:      b.OwnerID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		Status:    b.Status,
		CoverURL:  b.CoverURL,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if _, err := r.coll.InsertOne(timeoutCtx, m); err != nil {
		return err
	}
	*b = m.toBook()
	return nil
}

func (r *MongoRepo) load(ctx context.Context, id string) (*mongoBook, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var m mongoBook
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MongoRepo) Update(ctx context.Context, id string, fn Mutation) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		updated, err := r.tryUpdate(timeoutCtx, id, fn)
		if errors.Is(err, errConflict) {
			continue
		}
		return updated, err
	}
	return Book{}, fmt.Errorf("update book %s: %w", id, errConflict)
}

func (r *MongoRepo) tryUpdate(ctx context.Context, id string, fn Mutation) (Book, error) {
	m, err := r.load(ctx, id)
	if err != nil {
		return Book{}, err
	}
	var current *Book
	if m != nil {
		b := m.toBook()
		current = &b
	}
	if err := fn(current); err != nil {
		return Book{}, err
	}
	if current == nil {
		return Book{}, ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"title":     current.Title,
			"author":    current.Author,
			"genre":     current.Genre,
			"status":    current.Status,
			"coverUrl":  current.CoverURL,
			"updatedAt": mongoNow(),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out mongoBook
	if err := r.coll.FindOneAndUpdate(ctx, m.guard(), update, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Book{}, errConflict
		}
		return Book{}, err
	}
	return out.toBook(), nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string, fn Mutation) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		m, err := r.load(timeoutCtx, id)
		if err != nil {
			return err
		}
		var current *Book
		if m != nil {
			b := m.toBook()
			current = &b
		}
		if err := fn(current); err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}

		res, err := r.coll.DeleteOne(timeoutCtx, m.guard())
		if err != nil {
			return err
		}
		if res.DeletedCount == 1 {
			return nil
		}
	}
	return fmt.Errorf("delete book %s: %w", id, errConflict)
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.coll.Database().Client().Ping(timeoutCtx, nil)
}
