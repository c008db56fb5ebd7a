package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

type MongoDBService struct {
	client  *mongo.Client
	db      *mongo.Database
	enabled bool
}

const (
	CollectionRuns          = "analysis_runs"
	CollectionNotifications = "notification_history"
)

func NewMongoDBService(cfg *config.Config) (*MongoDBService, error) {
	if !cfg.MongoDB.Enabled {
		log.Println("MongoDB is disabled in configuration")
		return &MongoDBService{enabled: false}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoDB.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDB.Database)

	service := &MongoDBService{
		client:  client,
		db:      db,
		enabled: true,
	}

	// Create indexes
	if err := service.createIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create indexes: %v", err)
	}

	log.Printf("MongoDB connected successfully to database: %s", cfg.MongoDB.Database)
	return service, nil
}

func (m *MongoDBService) createIndexes(ctx context.Context) error {
	if !m.Enabled() {
		return nil
	}

	// Runs: compound index for per-profile history, plus global recency
	_, err := m.db.Collection(CollectionRuns).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "profile", Value: 1}, {Key: "finished_at", Value: -1}},
			Options: options.Index().SetName("profile_finished"),
		},
		{
			Keys:    bson.D{{Key: "finished_at", Value: -1}},
			Options: options.Index().SetName("finished_desc"),
		},
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("run_id").SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	// Notifications: per-profile recency
	_, err = m.db.Collection(CollectionNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "profile", Value: 1}, {Key: "sent_at", Value: -1}},
		Options: options.Index().SetName("profile_sent"),
	})

	return err
}

func (m *MongoDBService) Close() error {
	if !m.Enabled() || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Enabled reports whether MongoDB persistence is active.
func (m *MongoDBService) Enabled() bool {
	return m != nil && m.enabled
}

// ============================================
// INSERT METHODS
// ============================================

func (m *MongoDBService) InsertRun(ctx context.Context, run *models.AnalysisRun) error {
	if !m.Enabled() {
		return nil
	}
	_, err := m.db.Collection(CollectionRuns).InsertOne(ctx, run)
	return err
}

func (m *MongoDBService) InsertNotification(ctx context.Context, n *models.Notification) error {
	if !m.Enabled() {
		return nil
	}
	_, err := m.db.Collection(CollectionNotifications).InsertOne(ctx, n)
	return err
}

// ============================================
// QUERY METHODS
// ============================================

// GetRunByID returns a single run, or nil when no run matches.
func (m *MongoDBService) GetRunByID(ctx context.Context, id string) (*models.AnalysisRun, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	var run models.AnalysisRun
	err := m.db.Collection(CollectionRuns).FindOne(ctx, bson.M{"id": id}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// GetLatestRun returns the most recent completed run for a profile,
// or nil when the profile has never completed a run.
func (m *MongoDBService) GetLatestRun(ctx context.Context, profile string) (*models.AnalysisRun, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	filter := bson.M{"profile": profile, "status": models.RunCompleted}
	opts := options.FindOne().SetSort(bson.D{{Key: "finished_at", Value: -1}})

	var run models.AnalysisRun
	err := m.db.Collection(CollectionRuns).FindOne(ctx, filter, opts).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// GetRuns returns the most recent runs for a profile, newest first.
func (m *MongoDBService) GetRuns(ctx context.Context, profile string, limit int) ([]models.AnalysisRun, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.db.Collection(CollectionRuns).Find(ctx, bson.M{"profile": profile}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []models.AnalysisRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}

	return runs, nil
}

// GetRunsRange returns completed runs for a profile between two instants,
// oldest first.
func (m *MongoDBService) GetRunsRange(ctx context.Context, profile string, start, end time.Time) ([]models.AnalysisRun, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	filter := bson.M{
		"profile": profile,
		"finished_at": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "finished_at", Value: 1}})

	cursor, err := m.db.Collection(CollectionRuns).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []models.AnalysisRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}

	return runs, nil
}

// GetNotifications returns recent notifications, newest first. An empty
// profile matches all profiles.
func (m *MongoDBService) GetNotifications(ctx context.Context, profile string, limit int) ([]models.Notification, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{}
	if profile != "" {
		filter["profile"] = profile
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "sent_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.db.Collection(CollectionNotifications).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}

	return notifications, nil
}

// ============================================
// AGGREGATION
// ============================================

// GetProfileScoreSummary aggregates completed-run scores for a profile over
// the trailing number of days. Returns nil when no runs match.
func (m *MongoDBService) GetProfileScoreSummary(ctx context.Context, profile string, days int) (*models.ScoreSummary, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	if days <= 0 {
		days = 30
	}
	startDate := time.Now().AddDate(0, 0, -days)

	pipeline := mongo.Pipeline{
		// Completed runs for this profile inside the period
		{{Key: "$match", Value: bson.M{
			"profile":     profile,
			"status":      models.RunCompleted,
			"finished_at": bson.M{"$gte": startDate},
		}}},
		// Collapse to score aggregates
		{{Key: "$group", Value: bson.M{
			"_id":       "$profile",
			"runs":      bson.M{"$sum": 1},
			"avg_score": bson.M{"$avg": "$report.overall_score"},
			"min_score": bson.M{"$min": "$report.overall_score"},
			"max_score": bson.M{"$max": "$report.overall_score"},
			"first_run": bson.M{"$min": "$finished_at"},
			"last_run":  bson.M{"$max": "$finished_at"},
		}}},
	}

	cursor, err := m.db.Collection(CollectionRuns).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.ScoreSummary
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	summary := results[0]
	summary.Days = days
	return &summary, nil
}

// ============================================
// MAINTENANCE
// ============================================

// DeleteOldRuns deletes runs older than the specified duration
// Useful for data retention policies
func (m *MongoDBService) DeleteOldRuns(ctx context.Context, olderThan time.Duration) error {
	if !m.Enabled() {
		return fmt.Errorf("MongoDB not enabled")
	}

	cutoffTime := time.Now().Add(-olderThan)
	filter := bson.M{
		"finished_at": bson.M{"$lt": cutoffTime},
	}

	runResult, err := m.db.Collection(CollectionRuns).DeleteMany(ctx, filter)
	if err != nil {
		return err
	}

	notifResult, err := m.db.Collection(CollectionNotifications).DeleteMany(ctx, bson.M{
		"sent_at": bson.M{"$lt": cutoffTime},
	})
	if err != nil {
		return err
	}

	log.Printf("Deleted %d analysis runs and %d notifications older than %v",
		runResult.DeletedCount, notifResult.DeletedCount, olderThan)

	return nil
}

// GetDatabaseStats returns statistics about the MongoDB collections
func (m *MongoDBService) GetDatabaseStats(ctx context.Context) (map[string]interface{}, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	stats := make(map[string]interface{})

	runCount, _ := m.db.Collection(CollectionRuns).CountDocuments(ctx, bson.M{})
	notifCount, _ := m.db.Collection(CollectionNotifications).CountDocuments(ctx, bson.M{})

	stats["analysis_runs_count"] = runCount
	stats["notification_count"] = notifCount

	// Span of recorded runs
	var oldest models.AnalysisRun
	err := m.db.Collection(CollectionRuns).
		FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "finished_at", Value: 1}})).
		Decode(&oldest)
	if err == nil {
		stats["oldest_run"] = oldest.FinishedAt
	}

	var latest models.AnalysisRun
	err = m.db.Collection(CollectionRuns).
		FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "finished_at", Value: -1}})).
		Decode(&latest)
	if err == nil {
		stats["latest_run"] = latest.FinishedAt
	}

	if !oldest.FinishedAt.IsZero() && !latest.FinishedAt.IsZero() {
		duration := latest.FinishedAt.Sub(oldest.FinishedAt)
		stats["data_span_days"] = duration.Hours() / 24
	}

	return stats, nil
}
