package templates

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("template not found")

// Repository provides template persistence operations.
type Repository interface {
	Create(ctx context.Context, t *Template) error
	Get(ctx context.Context, id string) (*Template, error)
	// ListAll returns every template (admin listing).
	ListAll(ctx context.Context) ([]*Template, error)
	// ListVisibleTo returns the owner's templates plus all public ones,
	// deduplicated.
	ListVisibleTo(ctx context.Context, ownerID string) ([]*Template, error)
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id string) error
}

// MongoRepository implements Repository backed by a Mongo collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	// listings filter on owner and visibility
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "public", Value: 1}}, Options: options.Index()}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, t *Template) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Template, error) {
	var t Template
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *MongoRepository) ListAll(ctx context.Context) ([]*Template, error) {
	return r.list(ctx, bson.M{})
}

func (r *MongoRepository) ListVisibleTo(ctx context.Context, ownerID string) ([]*Template, error) {
	// a single $or query cannot return duplicates
	return r.list(ctx, bson.M{"$or": bson.A{bson.M{"ownerId": ownerID}, bson.M{"public": true}}})
}

func (r *MongoRepository) list(ctx context.Context, filter bson.M) ([]*Template, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Template{}
	for cur.Next(ctx) {
		var t Template
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, cur.Err()
}

func (r *MongoRepository) Update(ctx context.Context, t *Template) error {
	t.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":         t.Name,
		"content":      t.Content,
		"public":       t.Public,
		"placeholders": t.Placeholders,
		"updatedAt":    t.UpdatedAt,
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
