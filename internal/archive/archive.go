// Package archive keeps a record of stored render outputs so rendered
// documents uploaded to object storage can be found again later.
package archive

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is the Mongo representation of one archived render.
type Record struct {
	ObjectKey  string    `bson:"objectKey" json:"objectKey"`
	TemplateID string    `bson:"templateId" json:"templateId"`
	SubjectID  string    `bson:"subjectId" json:"subjectId"`
	RenderedAt time.Time `bson:"renderedAt" json:"renderedAt"`
}

// Store persists render records in a Mongo collection. A nil Store is a
// valid no-op store for deployments without MongoDB.
type Store struct {
	col *mongo.Collection
}

func NewStore(col *mongo.Collection) *Store {
	return &Store{col: col}
}

// Save upserts a render record keyed by object key.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if s == nil {
		return nil
	}
	if rec.RenderedAt.IsZero() {
		rec.RenderedAt = time.Now().UTC()
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.col.UpdateOne(ctx, bson.M{"objectKey": rec.ObjectKey}, bson.M{"$set": rec}, opts)
	return err
}

// Load fetches a render record by object key. Returns nil when not found.
func (s *Store) Load(ctx context.Context, objectKey string) (*Record, error) {
	if s == nil {
		return nil, nil
	}
	var rec Record
	if err := s.col.FindOne(ctx, bson.M{"objectKey": objectKey}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListByTemplate returns the archived renders of one template, newest first.
func (s *Store) ListByTemplate(ctx context.Context, templateID string) ([]*Record, error) {
	if s == nil {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "renderedAt", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"templateId": templateID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Record{}
	for cur.Next(ctx) {
		var rec Record
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, cur.Err()
}
