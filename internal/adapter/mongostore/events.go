package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aidhaven/incident-aggregation/internal/domain"
)

// EventStore implements store.EventStore on the nearbyEvents collection.
type EventStore struct {
	col *mongo.Collection
}

// eventDoc mirrors domain.NearbyEvent but leaves the timestamps loosely
// typed. Events written by older backend revisions stored createdAt as epoch
// milliseconds or formatted strings rather than native dates; decoding into
// `any` lets domain.CoerceTimestamp sort them out.
type eventDoc struct {
	ID          string             `bson:"_id"`
	Source      domain.EventSource `bson:"source"`
	Category    string             `bson:"category"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Location    domain.Location    `bson:"location"`
	Severity    domain.Severity    `bson:"severity,omitempty"`
	ReportCount int                `bson:"reportCount,omitempty"`
	ReportID    string             `bson:"reportId,omitempty"`
	CreatedAt   any                `bson:"createdAt,omitempty"`
	UpdatedAt   any                `bson:"updatedAt,omitempty"`
}

func (d eventDoc) toDomain() domain.NearbyEvent {
	e := domain.NearbyEvent{
		ID:          d.ID,
		Source:      d.Source,
		Category:    d.Category,
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Severity:    d.Severity,
		ReportCount: d.ReportCount,
		ReportID:    d.ReportID,
	}
	if t, ok := domain.CoerceTimestamp(unwrapBSONTime(d.CreatedAt)); ok {
		e.CreatedAt = t
	}
	if t, ok := domain.CoerceTimestamp(unwrapBSONTime(d.UpdatedAt)); ok {
		e.UpdatedAt = t
	}
	return e
}

// unwrapBSONTime converts driver-native date values into types the domain
// coercion understands. Epoch-millisecond and string encodings pass through.
func unwrapBSONTime(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case int32:
		return int64(t)
	default:
		return v
	}
}

func (s *EventStore) Upsert(ctx context.Context, e domain.NearbyEvent) error {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.col.ReplaceOne(octx, bson.M{"_id": e.ID}, e, options.Replace().SetUpsert(true))
	return wrapErr("upsert event", err)
}

func (s *EventStore) Insert(ctx context.Context, e domain.NearbyEvent) error {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.col.InsertOne(octx, e)
	return wrapErr("insert event", err)
}

func (s *EventStore) Get(ctx context.Context, id string) (domain.NearbyEvent, error) {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc eventDoc
	if err := s.col.FindOne(octx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.NearbyEvent{}, wrapErr("get event", err)
	}
	return doc.toDomain(), nil
}

func (s *EventStore) List(ctx context.Context, limit int) ([]domain.NearbyEvent, error) {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cur, err := s.col.Find(octx, bson.M{}, findOpts)
	if err != nil {
		return nil, wrapErr("list events", err)
	}
	defer cur.Close(octx)

	var events []domain.NearbyEvent
	for cur.Next(octx) {
		var doc eventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, wrapErr("decode event", err)
		}
		events = append(events, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr("list events", err)
	}
	return events, nil
}

func (s *EventStore) FindByReportID(ctx context.Context, reportID string) (domain.NearbyEvent, error) {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc eventDoc
	if err := s.col.FindOne(octx, bson.M{"reportId": reportID}).Decode(&doc); err != nil {
		return domain.NearbyEvent{}, wrapErr("find event by report", err)
	}
	return doc.toDomain(), nil
}

func (s *EventStore) DeleteByReportID(ctx context.Context, reportID string) (int, error) {
	octx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.col.DeleteMany(octx, bson.M{"reportId": reportID})
	if err != nil {
		return 0, wrapErr("delete events by report", err)
	}
	return int(res.DeletedCount), nil
}
