// Command seed populates a MongoDB instance with simulated nearby events
// and sample pending reports for local development and demos.
//
// Usage:
//
//	go run ./cmd/seed -mongo-uri mongodb://localhost:27017 -db incidents
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aidhaven/incident-aggregation/internal/adapter/mongostore"
	"github.com/aidhaven/incident-aggregation/internal/domain"
)

type simulatedEvent struct {
	category string
	title    string
	lat, lng float64
	address  string
	severity domain.Severity
	age      time.Duration
}

var simulatedEvents = []simulatedEvent{
	{"fire", "Apartment fire", 40.9903, 29.0275, "Istanbul / Kadikoy", domain.SeverityHigh, 2 * time.Hour},
	{"flood", "Street flooding after heavy rain", 41.0082, 28.9784, "Istanbul / Fatih", domain.SeverityMedium, 6 * time.Hour},
	{"earthquake", "Minor tremor reported", 40.7654, 29.9408, "Izmit / Merkez", domain.SeverityLow, 12 * time.Hour},
	{"storm", "Fallen trees blocking the road", 41.0422, 29.0089, "Istanbul / Besiktas", domain.SeverityMedium, 20 * time.Hour},
	{"landslide", "Hillside slippage near housing", 40.9862, 29.1569, "Istanbul / Maltepe", domain.SeverityHigh, 2 * 24 * time.Hour},
	{"robbery", "Shop robbery reported", 41.0255, 28.9744, "Istanbul / Beyoglu", domain.SeverityMedium, 5 * 24 * time.Hour},
}

var sampleReports = []struct {
	category    string
	description string
	address     string
}{
	{"fire", "Smoke rising from the apartment block across the street", "Istanbul / Kadikoy"},
	{"fire", "Flames visible on the third floor", "Istanbul / Kadikoy"},
	{"flood", "Basement flooded, water still rising", "Istanbul / Fatih"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	mongoURI := flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName := flag.String("db", "incidents", "database name")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := mongostore.Connect(ctx, *mongoURI, *dbName)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Disconnect(context.Background()) //nolint:errcheck

	now := time.Now().UTC()
	events := db.Events()
	for _, s := range simulatedEvents {
		ts := now.Add(-s.age)
		lat, lng := s.lat, s.lng
		e := domain.NearbyEvent{
			ID:        uuid.NewString(),
			Source:    domain.SourceSimulated,
			Category:  s.category,
			Title:     s.title,
			Location:  domain.Location{Lat: &lat, Lng: &lng, Address: s.address},
			Severity:  s.severity,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		if err := events.Upsert(ctx, e); err != nil {
			return fmt.Errorf("seed event %q: %w", s.title, err)
		}
		log.Printf("event: %s (%s, %s ago)", s.title, s.category, s.age)
	}

	reports := db.Reports()
	for i, s := range sampleReports {
		ts := now.Add(-time.Duration(i+1) * 10 * time.Minute)
		r := domain.Report{
			ID:          uuid.NewString(),
			UserID:      fmt.Sprintf("seed-user-%d", i+1),
			Category:    s.category,
			Description: s.description,
			Location:    domain.Location{Address: s.address},
			Status:      domain.StatusPending,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if err := reports.Insert(ctx, r); err != nil {
			return fmt.Errorf("seed report %d: %w", i, err)
		}
		log.Printf("report: %s at %s", s.category, s.address)
	}

	log.Printf("seeded %d events, %d reports", len(simulatedEvents), len(sampleReports))
	return nil
}
