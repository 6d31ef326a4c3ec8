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

const collectionNotifications = "notifications"

type NotificationRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewNotificationRepository(db *mongo.Database, timeout time.Duration) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications), timeout: opTimeout(timeout)}
}

type notificationDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	RecipientID string             `bson:"recipient_id"`
	Kind        string             `bson:"kind"`
	Title       string             `bson:"title"`
	Message     string             `bson:"message"`
	Metadata    map[string]any     `bson:"metadata,omitempty"`
	Read        bool               `bson:"read"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (d *notificationDoc) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:          d.ID.Hex(),
		RecipientID: d.RecipientID,
		Kind:        domain.NotificationKind(d.Kind),
		Title:       d.Title,
		Message:     d.Message,
		Metadata:    d.Metadata,
		Read:        d.Read,
		CreatedAt:   utc(d.CreatedAt),
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := notificationDoc{
		ID:          primitive.NewObjectID(),
		RecipientID: n.RecipientID,
		Kind:        string(n.Kind),
		Title:       n.Title,
		Message:     n.Message,
		Metadata:    n.Metadata,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.ID = doc.ID.Hex()
	return nil
}

// ListByRecipient returns a page of notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, page, limit int) ([]*domain.Notification, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"recipient_id": recipientID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find notifications: %w", err)
	}
	defer cur.Close(ctx)

	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode notifications: %w", err)
	}
	out := make([]*domain.Notification, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "read": false})
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrNotificationNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid, "recipient_id": recipientID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx, bson.M{"recipient_id": recipientID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes creates necessary indexes on the notifications collection.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
