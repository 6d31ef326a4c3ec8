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

const collectionTransactions = "transactions"

// LedgerRepository keeps balances on the users collection and the log in
// transactions. Every mutation runs inside a multi-document transaction, so
// MongoDB must run as a replica set.
type LedgerRepository struct {
	client  *mongo.Client
	users   *mongo.Collection
	txs     *mongo.Collection
	timeout time.Duration
}

func NewLedgerRepository(db *mongo.Database, timeout time.Duration) *LedgerRepository {
	return &LedgerRepository{
		client:  db.Client(),
		users:   db.Collection(collectionUsers),
		txs:     db.Collection(collectionTransactions),
		timeout: opTimeout(timeout),
	}
}

type transactionDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	Amount       int                `bson:"amount"`
	Kind         string             `bson:"kind"`
	SessionID    string             `bson:"session_id,omitempty"`
	Description  string             `bson:"description"`
	BalanceAfter int                `bson:"balance_after"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d *transactionDoc) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:           d.ID.Hex(),
		UserID:       d.UserID,
		Amount:       d.Amount,
		Kind:         domain.TransactionKind(d.Kind),
		SessionID:    d.SessionID,
		Description:  d.Description,
		BalanceAfter: d.BalanceAfter,
		CreatedAt:    utc(d.CreatedAt),
	}
}

type balanceDoc struct {
	Credits int `bson:"credits"`
}

// withTransaction runs fn in a session transaction. The driver retries fn on
// transient errors, so fn must be free of side effects outside the database.
func (r *LedgerRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *LedgerRepository) GrantInitial(ctx context.Context, userID string, amount int, at time.Time) (*domain.Transaction, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	var doc transactionDoc
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		n, err := r.txs.CountDocuments(sc, bson.M{"user_id": userID}, options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrAlreadyGranted
		}

		res, err := r.users.UpdateByID(sc, oid, bson.M{"$set": bson.M{"credits": amount, "updated_at": at.UTC()}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return domain.ErrUserNotFound
		}

		doc = transactionDoc{
			ID:           primitive.NewObjectID(),
			UserID:       userID,
			Amount:       amount,
			Kind:         string(domain.KindInitial),
			Description:  domain.DescInitialGrant,
			BalanceAfter: amount,
			CreatedAt:    at.UTC(),
		}
		_, err = r.txs.InsertOne(sc, doc)
		return err
	})
	if err != nil {
		return nil, wrapLedgerErr("grant initial", err)
	}
	return doc.toDomain(), nil
}

func (r *LedgerRepository) Balance(ctx context.Context, userID string) (int, error) {
	oid, ok := objectID(userID)
	if !ok {
		return 0, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc balanceDoc
	opts := options.FindOne().SetProjection(bson.M{"credits": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return doc.Credits, nil
}

// Transfer applies a guarded decrement on the payer, an increment on the payee
// and both log entries in one transaction. The unique (session_id, kind) index
// turns a second payment for the same session into domain.ErrAlreadySettled.
func (r *LedgerRepository) Transfer(ctx context.Context, rec ports.TransferRecord) (*domain.Transaction, *domain.Transaction, error) {
	fromID, ok := objectID(rec.FromUserID)
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}
	toID, ok := objectID(rec.ToUserID)
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}

	var debit, credit transactionDoc
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		n, err := r.users.CountDocuments(sc, bson.M{"_id": bson.M{"$in": bson.A{fromID, toID}}})
		if err != nil {
			return err
		}
		if n != 2 {
			return domain.ErrUserNotFound
		}

		if rec.SessionID != "" {
			paid, err := r.txs.CountDocuments(sc, bson.M{"session_id": rec.SessionID, "kind": string(domain.KindDebit)}, options.Count().SetLimit(1))
			if err != nil {
				return err
			}
			if paid > 0 {
				return domain.ErrAlreadySettled
			}
		}

		after := options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"credits": 1})
		at := rec.At.UTC()

		var from balanceDoc
		err = r.users.FindOneAndUpdate(sc,
			bson.M{"_id": fromID, "credits": bson.M{"$gte": rec.Amount}},
			bson.M{"$inc": bson.M{"credits": -rec.Amount}, "$set": bson.M{"updated_at": at}},
			after,
		).Decode(&from)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrInsufficientFunds
		}
		if err != nil {
			return err
		}

		var to balanceDoc
		err = r.users.FindOneAndUpdate(sc,
			bson.M{"_id": toID},
			bson.M{"$inc": bson.M{"credits": rec.Amount}, "$set": bson.M{"updated_at": at}},
			after,
		).Decode(&to)
		if err != nil {
			return err
		}

		debit = transactionDoc{
			ID:           primitive.NewObjectID(),
			UserID:       rec.FromUserID,
			Amount:       -rec.Amount,
			Kind:         string(domain.KindDebit),
			SessionID:    rec.SessionID,
			Description:  domain.DescSessionDebit,
			BalanceAfter: from.Credits,
			CreatedAt:    at,
		}
		credit = transactionDoc{
			ID:           primitive.NewObjectID(),
			UserID:       rec.ToUserID,
			Amount:       rec.Amount,
			Kind:         string(domain.KindCredit),
			SessionID:    rec.SessionID,
			Description:  domain.DescSessionCred,
			BalanceAfter: to.Credits,
			CreatedAt:    at,
		}
		_, err = r.txs.InsertMany(sc, []interface{}{debit, credit})
		return err
	})
	if err != nil {
		return nil, nil, wrapLedgerErr("transfer", err)
	}
	return debit.toDomain(), credit.toDomain(), nil
}

// History returns a page of entries newest first. ObjectIDs break ties
// between entries written in the same instant.
func (r *LedgerRepository) History(ctx context.Context, userID string, page, limit int) ([]*domain.Transaction, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"user_id": userID}
	total, err := r.txs.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.txs.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find history: %w", err)
	}
	defer cur.Close(ctx)

	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode history: %w", err)
	}

	out := make([]*domain.Transaction, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

// EnsureIndexes creates necessary indexes on the transactions collection.
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"session_id": bson.M{"$type": "string"}}),
		},
	}
	_, err := r.txs.Indexes().CreateMany(ctx, indexes)
	return err
}

// wrapLedgerErr keeps domain errors intact and maps a duplicate session entry
// to domain.ErrAlreadySettled.
func wrapLedgerErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrConflict):
		return err
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrAlreadySettled
	}
	return fmt.Errorf("%s: %w", op, err)
}
