package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aidhaven/incident-aggregation/internal/domain"
)

// ReportStore implements store.ReportStore on the reports collection.
type ReportStore struct {
	col *mongo.Collection
}

func (s *ReportStore) Insert(ctx context.Context, r domain.Report) error {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.col.InsertOne(octx, r)
	return wrapErr("insert report", err)
}

func (s *ReportStore) Get(ctx context.Context, id string) (domain.Report, error) {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var r domain.Report
	err := s.col.FindOne(octx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		return domain.Report{}, wrapErr("get report", err)
	}
	return r, nil
}

func (s *ReportStore) Update(ctx context.Context, r domain.Report) error {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.col.ReplaceOne(octx, bson.M{"_id": r.ID}, r)
	if err != nil {
		return wrapErr("update report", err)
	}
	if res.MatchedCount == 0 {
		return wrapErr("update report", mongo.ErrNoDocuments)
	}
	return nil
}

func (s *ReportStore) Delete(ctx context.Context, id string) error {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Deleting a missing report is a no-op: the end state is identical,
	// which keeps permanent deletion safe to retry.
	_, err := s.col.DeleteOne(octx, bson.M{"_id": id})
	return wrapErr("delete report", err)
}

func (s *ReportStore) CountByCategoryAndAddress(ctx context.Context, category, address string) (int, error) {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Exact equality on both fields; moderation state is deliberately not
	// part of the filter (see store.ReportStore).
	n, err := s.col.CountDocuments(octx, bson.M{
		"category":         category,
		"location.address": address,
	})
	if err != nil {
		return 0, wrapErr("count reports", err)
	}
	return int(n), nil
}

func (s *ReportStore) ListByCategoryAndAddress(ctx context.Context, category, address string) ([]domain.Report, error) {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := s.col.Find(octx, bson.M{
		"category":         category,
		"location.address": address,
	}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, wrapErr("list reports", err)
	}
	defer cur.Close(octx)

	var out []domain.Report
	if err := cur.All(octx, &out); err != nil {
		return nil, wrapErr("list reports", err)
	}
	return out, nil
}
