package db

import (
	"fmt"

	"court-motion/models"
	"court-motion/utils"
)

// Client persists analysis sessions and their speed samples. The core
// pipeline never reads these back; storage exists for review tooling.
type Client interface {
	Close() error

	StoreSession(record *models.SessionRecord) (int64, error)
	GetAllSessions() ([]models.SessionRecord, error)
	GetSessionByID(id int64) (models.SessionRecord, bool, error)
	DeleteSessionByID(id int64) error

	StoreSpeedSamples(samples []models.SpeedSample) error
	GetSpeedSamples(sessionID int64) ([]models.SpeedSample, error)
}

// NewDBClient selects a backend from the DB_TYPE env var: "sqlite"
// (default) or "mongo".
func NewDBClient() (Client, error) {
	dbType := utils.GetEnv("DB_TYPE", "sqlite")

	switch dbType {
	case "sqlite":
		path := utils.GetEnv("SQLITE_DB_PATH", "storage/sessions.db")
		return NewSQLiteClient(path)
	case "mongo":
		uri := utils.GetEnv("MONGO_URI", "mongodb://localhost:27017")
		dbName := utils.GetEnv("MONGO_DB", "court-motion")
		return NewMongoClient(uri, dbName)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (expected sqlite or mongo)", dbType)
	}
}
