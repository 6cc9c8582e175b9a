package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leeaandrob/roascalc/internal/models"
)

// MongoStore provides access to the MongoDB collections.
type MongoStore struct {
	client   *mongo.Client
	db       *mongo.Database
	leads    *mongo.Collection
	users    *mongo.Collection
	analyses *mongo.Collection
}

// NewMongoStore connects, pings and prepares indexes.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	log.Info().Str("db", dbName).Msg("Connected to MongoDB")

	store := &MongoStore{
		client:   client,
		db:       db,
		leads:    db.Collection("leads"),
		users:    db.Collection("users"),
		analyses: db.Collection("analyses"),
	}

	if err := store.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create some indexes")
	}

	return store, nil
}

// Close closes the database connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// createIndexes creates the unique e-mail keys the lead and user flows
// depend on, plus the dashboard lookup indexes.
func (s *MongoStore) createIndexes(ctx context.Context) error {
	leadIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}
	if _, err := s.leads.Indexes().CreateMany(ctx, leadIndexes); err != nil {
		return err
	}

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return err
	}

	analysisIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "lead_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := s.analyses.Indexes().CreateMany(ctx, analysisIndexes); err != nil {
		return err
	}

	return nil
}

func mongoErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

// ============================================================================
// LEAD OPERATIONS
// ============================================================================

func (s *MongoStore) FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	var lead models.Lead
	if err := s.leads.FindOne(ctx, bson.M{"email": email}).Decode(&lead); err != nil {
		return nil, mongoErr(err)
	}
	return &lead, nil
}

func (s *MongoStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	var lead models.Lead
	if err := s.leads.FindOne(ctx, bson.M{"_id": id}).Decode(&lead); err != nil {
		return nil, mongoErr(err)
	}
	return &lead, nil
}

func (s *MongoStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	_, err := s.leads.InsertOne(ctx, lead)
	return mongoErr(err)
}

func (s *MongoStore) LinkLeadsToUser(ctx context.Context, email, userID string) (int64, error) {
	filter := bson.M{"email": email, "user_id": nil}
	update := bson.M{"$set": bson.M{"user_id": userID}}

	res, err := s.leads.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ============================================================================
// USER OPERATIONS
// ============================================================================

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, mongoErr(err)
	}
	return &user, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mongoErr(err)
	}
	return &user, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.users.InsertOne(ctx, user)
	return mongoErr(err)
}

// ============================================================================
// ANALYSIS OPERATIONS
// ============================================================================

func (s *MongoStore) CreateAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	_, err := s.analyses.InsertOne(ctx, record)
	return mongoErr(err)
}

func (s *MongoStore) GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	if err := s.analyses.FindOne(ctx, bson.M{"_id": id}).Decode(&record); err != nil {
		return nil, mongoErr(err)
	}

	lead, err := s.GetLead(ctx, record.LeadID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if lead != nil {
		record.Lead = lead.Ref()
	}
	return &record, nil
}

// ListAnalysesByUser resolves the user's leads first, then their analyses.
func (s *MongoStore) ListAnalysesByUser(ctx context.Context, userID string) ([]models.AnalysisRecord, error) {
	leadCursor, err := s.leads.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer leadCursor.Close(ctx)

	var leads []models.Lead
	if err := leadCursor.All(ctx, &leads); err != nil {
		return nil, err
	}

	records := make([]models.AnalysisRecord, 0)
	if len(leads) == 0 {
		return records, nil
	}

	refs := make(map[string]*models.LeadRef, len(leads))
	ids := make([]string, 0, len(leads))
	for i := range leads {
		refs[leads[i].ID] = leads[i].Ref()
		ids = append(ids, leads[i].ID)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.analyses.Find(ctx, bson.M{"lead_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Lead = refs[records[i].LeadID]
	}
	return records, nil
}
