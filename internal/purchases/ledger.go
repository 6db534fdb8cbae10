// Package purchases is the ledger of verified sales. It backs the user
// dashboard and the admin sales view.
package purchases

import (
	"context"
	"errors"
	"fmt"

	"dreamhome/web/internal/db"
	"dreamhome/web/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "purchases"

// IPurchaseLedger records and lists purchases.
type IPurchaseLedger interface {
	Record(ctx context.Context, p *models.Purchase) (*models.Purchase, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]models.Purchase, error)
	ListAll(ctx context.Context) ([]models.Purchase, error)
}

type ledger struct {
	coll *mongo.Collection
}

// NewLedger creates the Mongo-backed ledger.
func NewLedger(database *mongo.Database) IPurchaseLedger {
	return &ledger{coll: database.Collection(collectionName)}
}

// EnsureIndexes creates the unique order index and the buyer lookup index.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(collectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "purchase_date", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create purchase indexes: %w", err)
	}
	return nil
}

// Record inserts p. Recording the same order twice returns the stored record.
func (l *ledger) Record(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	doc := *p
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	err := db.Try(ctx, func(ctx context.Context) error {
		_, err := l.coll.InsertOne(ctx, doc)
		return err
	})
	if err == nil {
		return &doc, nil
	}
	if !db.IsMongoDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to insert purchase: %w", err)
	}

	var existing models.Purchase
	if err := l.coll.FindOne(ctx, bson.M{"order_id": p.OrderID}).Decode(&existing); err != nil {
		return nil, fmt.Errorf("failed to load existing purchase: %w", err)
	}
	return &existing, nil
}

func (l *ledger) ListByBuyer(ctx context.Context, buyerID int64) ([]models.Purchase, error) {
	return l.find(ctx, bson.M{"buyer_id": buyerID})
}

func (l *ledger) ListAll(ctx context.Context) ([]models.Purchase, error) {
	return l.find(ctx, bson.M{})
}

func (l *ledger) find(ctx context.Context, filter bson.M) ([]models.Purchase, error) {
	cursor, err := l.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "purchase_date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Purchase{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode purchases: %w", err)
	}
	return out, nil
}

// Summary aggregates a list of purchases for the dashboards.
type Summary struct {
	Count      int
	Revenue    float64
	LastAmount float64
}

// Totals summarizes records, which are expected newest first.
func Totals(records []models.Purchase) Summary {
	s := Summary{Count: len(records)}
	for _, r := range records {
		s.Revenue += r.Amount
	}
	if len(records) > 0 {
		s.LastAmount = records[0].Amount
	}
	return s
}

// ErrLedgerUnavailable is returned by the no-op ledger used when MongoDB is
// not configured.
var ErrLedgerUnavailable = errors.New("purchase ledger unavailable")

type unavailable struct{}

// Unavailable returns a ledger that refuses writes and lists nothing.
func Unavailable() IPurchaseLedger { return unavailable{} }

func (unavailable) Record(context.Context, *models.Purchase) (*models.Purchase, error) {
	return nil, ErrLedgerUnavailable
}

func (unavailable) ListByBuyer(context.Context, int64) ([]models.Purchase, error) {
	return []models.Purchase{}, nil
}

func (unavailable) ListAll(context.Context) ([]models.Purchase, error) {
	return []models.Purchase{}, nil
}
