// Package mongostore implements the store interfaces on MongoDB.
//
// Records use application-assigned string _id values (UUIDs for reports and
// audit entries, deterministic cluster keys for promoted events), so the
// cluster upsert is a plain ReplaceOne with upsert enabled and needs no
// separate unique index.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aidhaven/incident-aggregation/internal/store"
)

const (
	colReports   = "reports"
	colEvents    = "nearbyEvents"
	colAuditLogs = "auditLogs"

	connectTimeout = 15 * time.Second
	opTimeout      = 8 * time.Second
)

// DB wraps a connected Mongo database and exposes the three stores.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials Mongo, pings it, and creates the indexes the query paths
// rely on. Any failure, index creation included, fails the call.
func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	dctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect %s: %w", RedactURI(uri), err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping %s: %w", RedactURI(uri), err)
	}

	d := &DB{client: client, db: client.Database(dbName)}
	if err := d.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return d, nil
}

// Disconnect closes the underlying client.
func (d *DB) Disconnect(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Ping checks backend reachability, for readiness probes.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx, nil); err != nil {
		return store.ErrUnavailable
	}
	return nil
}

// Reports returns the report store backed by this database.
func (d *DB) Reports() *ReportStore { return &ReportStore{col: d.db.Collection(colReports)} }

// Events returns the nearby-event store backed by this database.
func (d *DB) Events() *EventStore { return &EventStore{col: d.db.Collection(colEvents)} }

// Audit returns the audit store backed by this database.
func (d *DB) Audit() *AuditStore { return &AuditStore{col: d.db.Collection(colAuditLogs)} }

func (d *DB) createIndexes(ctx context.Context) error {
	ictx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := d.db.Collection(colReports).Indexes().CreateMany(ictx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "location.address", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = d.db.Collection(colEvents).Indexes().CreateMany(ictx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reportId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = d.db.Collection(colAuditLogs).Indexes().CreateMany(ictx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reportId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// RedactURI strips credentials from a Mongo URI for logging.
func RedactURI(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}

// wrapErr maps driver errors onto the store error taxonomy. Anything that is
// not a document-level miss is treated as the backend being unavailable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %v: %w", op, err, store.ErrUnavailable)
}
