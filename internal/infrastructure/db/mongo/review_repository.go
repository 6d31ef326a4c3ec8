package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

const collectionReviews = "reviews"

// ReviewRepository stores reviews. A unique index on (session_id,
// reviewer_id) enforces one review per participant per session.
type ReviewRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewReviewRepository(db *mongo.Database, timeout time.Duration) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(collectionReviews), timeout: opTimeout(timeout)}
}

type reviewDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SessionID  string             `bson:"session_id"`
	ReviewerID string             `bson:"reviewer_id"`
	RevieweeID string             `bson:"reviewee_id"`
	Rating     int                `bson:"rating"`
	Comment    string             `bson:"comment"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d *reviewDoc) toDomain() *domain.Review {
	return &domain.Review{
		ID:         d.ID.Hex(),
		SessionID:  d.SessionID,
		ReviewerID: d.ReviewerID,
		RevieweeID: d.RevieweeID,
		Rating:     d.Rating,
		Comment:    d.Comment,
		CreatedAt:  utc(d.CreatedAt),
	}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := reviewDoc{
		ID:         primitive.NewObjectID(),
		SessionID:  rv.SessionID,
		ReviewerID: rv.ReviewerID,
		RevieweeID: rv.RevieweeID,
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		CreatedAt:  rv.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrReviewExists
		}
		return fmt.Errorf("insert review: %w", err)
	}
	rv.ID = doc.ID.Hex()
	return nil
}

// ListByReviewee returns a page of received reviews, newest first.
func (r *ReviewRepository) ListByReviewee(ctx context.Context, userID string, page, limit int) ([]*domain.Review, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"reviewee_id": userID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	out, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ReviewRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.find(ctx, bson.M{"session_id": sessionID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *ReviewRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Review, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	out := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// Reputation averages the ratings userID received in a single aggregation.
func (r *ReviewRepository) Reputation(ctx context.Context, userID string) (domain.Reputation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"reviewee_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.Reputation{}, fmt.Errorf("aggregate reputation: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Average float64 `bson:"average"`
		Count   int64   `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.Reputation{}, fmt.Errorf("decode reputation: %w", err)
	}
	rep := domain.Reputation{UserID: userID}
	if len(rows) > 0 {
		rep.Average = rows[0].Average
		rep.Count = rows[0].Count
	}
	return rep, nil
}

// EnsureIndexes creates the uniqueness and lookup indexes on reviews.
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "reviewer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reviewee_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}
