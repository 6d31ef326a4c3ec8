package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

const collectionSessions = "sessions"

type SessionRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewSessionRepository(db *mongo.Database, timeout time.Duration) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions), timeout: opTimeout(timeout)}
}

type sessionDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	RequesterID        string             `bson:"requester_id"`
	ProviderID         string             `bson:"provider_id"`
	SkillID            string             `bson:"skill_id"`
	ScheduledAt        time.Time          `bson:"scheduled_at"`
	Duration           int                `bson:"duration"`
	Status             string             `bson:"status"`
	Message            string             `bson:"message,omitempty"`
	MeetingLink        string             `bson:"meeting_link,omitempty"`
	RoomID             string             `bson:"room_id,omitempty"`
	RequesterConfirmed bool               `bson:"requester_confirmed"`
	ProviderConfirmed  bool               `bson:"provider_confirmed"`
	CompletedAt        *time.Time         `bson:"completed_at,omitempty"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func (d *sessionDoc) toDomain() *domain.Session {
	return &domain.Session{
		ID:                 d.ID.Hex(),
		RequesterID:        d.RequesterID,
		ProviderID:         d.ProviderID,
		SkillID:            d.SkillID,
		ScheduledAt:        utc(d.ScheduledAt),
		Duration:           d.Duration,
		Status:             domain.SessionStatus(d.Status),
		Message:            d.Message,
		MeetingLink:        d.MeetingLink,
		RoomID:             d.RoomID,
		RequesterConfirmed: d.RequesterConfirmed,
		ProviderConfirmed:  d.ProviderConfirmed,
		CompletedAt:        timePtr(d.CompletedAt),
		CreatedAt:          utc(d.CreatedAt),
		UpdatedAt:          utc(d.UpdatedAt),
	}
}

// Create inserts a new session document and assigns its ID.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := sessionDoc{
		ID:          primitive.NewObjectID(),
		RequesterID: s.RequesterID,
		ProviderID:  s.ProviderID,
		SkillID:     s.SkillID,
		ScheduledAt: s.ScheduledAt.UTC(),
		Duration:    s.Duration,
		Status:      string(s.Status),
		Message:     s.Message,
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	s.ID = doc.ID.Hex()
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *SessionRepository) FindByRoomID(ctx context.Context, roomID string) (*domain.Session, error) {
	if roomID == "" {
		return nil, domain.ErrSessionNotFound
	}
	return r.findOne(ctx, bson.M{"room_id": roomID})
}

func (r *SessionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc sessionDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return doc.toDomain(), nil
}

// ListByUser returns sessions where userID is either participant, latest scheduled first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, status domain.SessionStatus) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"requester_id": userID},
		bson.M{"provider_id": userID},
	}}
	if status != "" {
		filter["status"] = string(status)
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	out := make([]*domain.Session, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// Transition is a compare-and-set on status. A move to completed also
// requires both confirmation flags in the filter.
func (r *SessionRepository) Transition(ctx context.Context, id string, from, to domain.SessionStatus, patch ports.SessionPatch) (*domain.Session, error) {
	filter := bson.M{"status": string(from)}
	if to == domain.SessionCompleted {
		filter["requester_confirmed"] = true
		filter["provider_confirmed"] = true
	}

	set := bson.M{"status": string(to), "updated_at": patch.UpdatedAt.UTC()}
	if patch.RoomID != "" {
		set["room_id"] = patch.RoomID
	}
	if patch.CompletedAt != nil {
		set["completed_at"] = patch.CompletedAt.UTC()
	}
	return r.conditionalUpdate(ctx, id, filter, set)
}

func (r *SessionRepository) Confirm(ctx context.Context, id string, p domain.Participant, at time.Time) (*domain.Session, error) {
	var field string
	switch p {
	case domain.Requester:
		field = "requester_confirmed"
	case domain.Provider:
		field = "provider_confirmed"
	default:
		return nil, domain.ErrNotParticipant
	}
	return r.conditionalUpdate(ctx, id,
		bson.M{"status": string(domain.SessionAccepted)},
		bson.M{field: true, "updated_at": at.UTC()},
	)
}

func (r *SessionRepository) SetMeetingLink(ctx context.Context, id, link string, at time.Time) (*domain.Session, error) {
	return r.conditionalUpdate(ctx, id,
		bson.M{"status": string(domain.SessionAccepted)},
		bson.M{"meeting_link": link, "updated_at": at.UTC()},
	)
}

// conditionalUpdate applies set when the document still matches filter. A
// miss is reported as not found or stale depending on whether the ID exists.
func (r *SessionRepository) conditionalUpdate(ctx context.Context, id string, filter, set bson.M) (*domain.Session, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter["_id"] = oid
	var doc sessionDoc
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": oid})
		if cerr != nil {
			return nil, fmt.Errorf("update session: %w", cerr)
		}
		if n == 0 {
			return nil, domain.ErrSessionNotFound
		}
		return nil, domain.ErrStaleSession
	}
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates necessary indexes on the sessions collection.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "scheduled_at", Value: -1}}},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "scheduled_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"room_id": bson.M{"$type": "string"}}),
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
