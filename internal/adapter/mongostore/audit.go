package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aidhaven/incident-aggregation/internal/domain"
)

// AuditStore implements store.AuditStore on the auditLogs collection.
// Entries are append-only; nothing in this adapter mutates or deletes them.
type AuditStore struct {
	col *mongo.Collection
}

func (s *AuditStore) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.col.InsertOne(octx, entry)
	return wrapErr("append audit entry", err)
}

func (s *AuditStore) ListByReport(ctx context.Context, reportID string) ([]domain.AuditLogEntry, error) {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.col.Find(octx, bson.M{"reportId": reportID}, findOpts)
	if err != nil {
		return nil, wrapErr("list audit entries", err)
	}
	defer cur.Close(octx)

	var entries []domain.AuditLogEntry
	for cur.Next(octx) {
		var e domain.AuditLogEntry
		if err := cur.Decode(&e); err != nil {
			return nil, wrapErr("decode audit entry", err)
		}
		entries = append(entries, e)
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr("list audit entries", err)
	}
	return entries, nil
}
