package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

// MongoArchive keeps a copy of every run's items and reports. Each item
// becomes one document tagged with the run id.
type MongoArchive struct {
	client      *mongo.Client
	items       *mongo.Collection
	inspections *mongo.Collection
	count       int
	logger      *slog.Logger
}

// NewMongoArchive connects to uri and verifies the server is reachable.
// Reports go to "<collection>_inspections".
func NewMongoArchive(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoArchive, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	db := client.Database(database)
	return &MongoArchive{
		client:      client,
		items:       db.Collection(collection),
		inspections: db.Collection(collection + "_inspections"),
		logger:      logger.With("component", "mongo_archive"),
	}, nil
}

func (s *MongoArchive) Name() string { return "mongodb" }

func (s *MongoArchive) Store(ctx context.Context, run *Run) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if docs := itemDocuments(run); len(docs) > 0 {
		if _, err := s.items.InsertMany(ctx, docs); err != nil {
			return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("insert items: %w", err)}
		}
	}
	if docs := reportDocuments(run); len(docs) > 0 {
		if _, err := s.inspections.InsertMany(ctx, docs); err != nil {
			return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("insert reports: %w", err)}
		}
	}

	s.count += len(run.Items)
	s.logger.Info("run archived", "run_id", run.ID, "items", len(run.Items), "reports", len(run.Reports))
	return nil
}

func (s *MongoArchive) Close() error {
	s.logger.Debug("mongodb archive closing", "total_items", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func itemDocuments(run *Run) []any {
	docs := make([]any, 0, len(run.Items))
	for _, item := range run.Items {
		docs = append(docs, bson.M{
			"run_id":      run.ID,
			"source":      string(run.Source),
			"source_id":   item.SourceID,
			"archived_at": run.FinishedAt,
			"item":        item,
		})
	}
	return docs
}

func reportDocuments(run *Run) []any {
	docs := make([]any, 0, len(run.Reports))
	for _, r := range run.Reports {
		docs = append(docs, bson.M{
			"run_id":            run.ID,
			"source":            string(run.Source),
			"vehicle_source_id": r.VehicleSourceID,
			"archived_at":       run.FinishedAt,
			"report":            r,
		})
	}
	return docs
}
