package db

import (
	"context"
	"fmt"
	"time"

	"court-motion/models"
	"court-motion/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoOpTimeout = 10 * time.Second

type MongoClient struct {
	client   *mongo.Client
	sessions *mongo.Collection
	samples  *mongo.Collection
}

type mongoSession struct {
	ID                  int64     `bson:"_id"`
	Timestamp           time.Time `bson:"timestamp"`
	CourtType           string    `bson:"court_type"`
	ModeID              string    `bson:"mode_id"`
	PointCount          int       `bson:"point_count"`
	CalibrationAccuracy float64   `bson:"calibration_accuracy"`
	ReprojectionError   float64   `bson:"reprojection_error"`
	Homography          string    `bson:"homography"`
	FrameCount          int64     `bson:"frame_count"`
	MaxSpeed            float64   `bson:"max_speed"`
	AverageSpeed        float64   `bson:"average_speed"`
}

type mongoSample struct {
	SessionID          int64   `bson:"session_id"`
	Timestamp          float64 `bson:"timestamp"`
	Speed              float64 `bson:"speed"`
	GeneralMovingSpeed float64 `bson:"general_moving_speed"`
	Clamped            bool    `bson:"clamped"`
}

func NewMongoClient(uri, dbName string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	database := client.Database(dbName)
	return &MongoClient{
		client:   client,
		sessions: database.Collection("sessions"),
		samples:  database.Collection("speed_samples"),
	}, nil
}

func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// StoreSession inserts a session record and returns its assigned id.
// MongoDB has no autoincrement; ids are random 32-bit values as elsewhere
// in the storage layer.
func (m *MongoClient) StoreSession(record *models.SessionRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	id := int64(utils.GenerateUniqueID())
	doc := mongoSession{
		ID:                  id,
		Timestamp:           record.Timestamp,
		CourtType:           record.CourtType,
		ModeID:              record.ModeID,
		PointCount:          record.PointCount,
		CalibrationAccuracy: record.CalibrationAccuracy,
		ReprojectionError:   record.ReprojectionError,
		Homography:          string(record.Homography),
		FrameCount:          record.FrameCount,
		MaxSpeed:            record.MaxSpeed,
		AverageSpeed:        record.AverageSpeed,
	}
	if _, err := m.sessions.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("error storing session: %s", err)
	}
	record.ID = id
	return id, nil
}

func (m *MongoClient) GetAllSessions() ([]models.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := m.sessions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying sessions: %s", err)
	}
	defer cursor.Close(ctx)

	var records []models.SessionRecord
	for cursor.Next(ctx) {
		var doc mongoSession
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding session: %s", err)
		}
		records = append(records, doc.toRecord())
	}
	return records, cursor.Err()
}

func (m *MongoClient) GetSessionByID(id int64) (models.SessionRecord, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	var doc mongoSession
	err := m.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return models.SessionRecord{}, false, nil
	}
	if err != nil {
		return models.SessionRecord{}, false, fmt.Errorf("error querying session: %s", err)
	}
	return doc.toRecord(), true, nil
}

func (m *MongoClient) DeleteSessionByID(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	if _, err := m.samples.DeleteMany(ctx, bson.M{"session_id": id}); err != nil {
		return fmt.Errorf("failed to delete speed samples: %v", err)
	}
	if _, err := m.sessions.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %v", err)
	}
	return nil
}

func (m *MongoClient) StoreSpeedSamples(samples []models.SpeedSample) error {
	if len(samples) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	docs := make([]interface{}, len(samples))
	for i, sample := range samples {
		docs[i] = mongoSample{
			SessionID:          sample.SessionID,
			Timestamp:          sample.Timestamp,
			Speed:              sample.Speed,
			GeneralMovingSpeed: sample.GeneralMovingSpeed,
			Clamped:            sample.Clamped,
		}
	}
	if _, err := m.samples.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("error storing speed samples: %s", err)
	}
	return nil
}

func (m *MongoClient) GetSpeedSamples(sessionID int64) ([]models.SpeedSample, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := m.samples.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying speed samples: %s", err)
	}
	defer cursor.Close(ctx)

	var samples []models.SpeedSample
	for cursor.Next(ctx) {
		var doc mongoSample
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding speed sample: %s", err)
		}
		samples = append(samples, models.SpeedSample{
			SessionID:          doc.SessionID,
			Timestamp:          doc.Timestamp,
			Speed:              doc.Speed,
			GeneralMovingSpeed: doc.GeneralMovingSpeed,
			Clamped:            doc.Clamped,
		})
	}
	return samples, cursor.Err()
}

func (doc mongoSession) toRecord() models.SessionRecord {
	return models.SessionRecord{
		ID:                  doc.ID,
		Timestamp:           doc.Timestamp,
		CourtType:           doc.CourtType,
		ModeID:              doc.ModeID,
		PointCount:          doc.PointCount,
		CalibrationAccuracy: doc.CalibrationAccuracy,
		ReprojectionError:   doc.ReprojectionError,
		Homography:          []byte(doc.Homography),
		FrameCount:          doc.FrameCount,
		MaxSpeed:            doc.MaxSpeed,
		AverageSpeed:        doc.AverageSpeed,
	}
}
