package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"court-motion/models"
	"court-motion/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createSessionsTable := `
    CREATE TABLE IF NOT EXISTS sessions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        court_type TEXT NOT NULL,
        mode_id TEXT NOT NULL,
        point_count INTEGER NOT NULL DEFAULT 0,
        calibration_accuracy REAL NOT NULL DEFAULT 0,
        reprojection_error REAL NOT NULL DEFAULT 0,
        homography TEXT NOT NULL,
        frame_count INTEGER NOT NULL DEFAULT 0,
        max_speed REAL NOT NULL DEFAULT 0,
        average_speed REAL NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp);
    `

	createSpeedSamplesTable := `
    CREATE TABLE IF NOT EXISTS speed_samples (
        session_id INTEGER NOT NULL,
        timestamp REAL NOT NULL,
        speed REAL NOT NULL,
        general_moving_speed REAL NOT NULL,
        clamped INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY (session_id, timestamp)
    );
    `

	if _, err := db.Exec(createSessionsTable); err != nil {
		return fmt.Errorf("error creating sessions table: %s", err)
	}
	if _, err := db.Exec(createSpeedSamplesTable); err != nil {
		return fmt.Errorf("error creating speed_samples table: %s", err)
	}
	return nil
}

func (s *SQLiteClient) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreSession inserts a session record and returns its assigned id.
func (s *SQLiteClient) StoreSession(record *models.SessionRecord) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO sessions (
			timestamp, court_type, mode_id, point_count,
			calibration_accuracy, reprojection_error, homography,
			frame_count, max_speed, average_speed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp,
		record.CourtType,
		record.ModeID,
		record.PointCount,
		record.CalibrationAccuracy,
		record.ReprojectionError,
		string(record.Homography),
		record.FrameCount,
		record.MaxSpeed,
		record.AverageSpeed,
	)
	if err != nil {
		return 0, fmt.Errorf("error storing session: %s", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading session id: %s", err)
	}
	record.ID = id
	return id, nil
}

// GetAllSessions retrieves all stored sessions, newest first.
func (s *SQLiteClient) GetAllSessions() ([]models.SessionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, court_type, mode_id, point_count,
		       calibration_accuracy, reprojection_error, homography,
		       frame_count, max_speed, average_speed
		FROM sessions
		ORDER BY timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying sessions: %s", err)
	}
	defer rows.Close()

	var records []models.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetSessionByID retrieves a single session record.
func (s *SQLiteClient) GetSessionByID(id int64) (models.SessionRecord, bool, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, court_type, mode_id, point_count,
		       calibration_accuracy, reprojection_error, homography,
		       frame_count, max_speed, average_speed
		FROM sessions WHERE id = ?
	`, id)
	if err != nil {
		return models.SessionRecord{}, false, fmt.Errorf("error querying session: %s", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return models.SessionRecord{}, false, rows.Err()
	}
	record, err := scanSession(rows)
	if err != nil {
		return models.SessionRecord{}, false, err
	}
	return record, true, nil
}

// DeleteSessionByID removes a session and its samples.
func (s *SQLiteClient) DeleteSessionByID(id int64) error {
	if _, err := s.db.Exec("DELETE FROM speed_samples WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete speed samples: %v", err)
	}
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %v", err)
	}
	return nil
}

// StoreSpeedSamples batch-inserts per-frame samples in one transaction.
func (s *SQLiteClient) StoreSpeedSamples(samples []models.SpeedSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO speed_samples
			(session_id, timestamp, speed, general_moving_speed, clamped)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %s", err)
	}
	defer stmt.Close()

	for _, sample := range samples {
		clampedInt := 0
		if sample.Clamped {
			clampedInt = 1
		}
		if _, err := stmt.Exec(sample.SessionID, sample.Timestamp, sample.Speed,
			sample.GeneralMovingSpeed, clampedInt); err != nil {
			tx.Rollback()
			return fmt.Errorf("error executing statement: %s", err)
		}
	}

	return tx.Commit()
}

// GetSpeedSamples retrieves a session's samples in video-clock order.
func (s *SQLiteClient) GetSpeedSamples(sessionID int64) ([]models.SpeedSample, error) {
	rows, err := s.db.Query(`
		SELECT session_id, timestamp, speed, general_moving_speed, clamped
		FROM speed_samples
		WHERE session_id = ?
		ORDER BY timestamp ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error querying speed samples: %s", err)
	}
	defer rows.Close()

	var samples []models.SpeedSample
	for rows.Next() {
		var sample models.SpeedSample
		var clampedInt int
		if err := rows.Scan(&sample.SessionID, &sample.Timestamp, &sample.Speed,
			&sample.GeneralMovingSpeed, &clampedInt); err != nil {
			return nil, fmt.Errorf("error scanning speed sample: %s", err)
		}
		sample.Clamped = clampedInt == 1
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func scanSession(rows *sql.Rows) (models.SessionRecord, error) {
	var record models.SessionRecord
	var homographyJSON string

	err := rows.Scan(
		&record.ID,
		&record.Timestamp,
		&record.CourtType,
		&record.ModeID,
		&record.PointCount,
		&record.CalibrationAccuracy,
		&record.ReprojectionError,
		&homographyJSON,
		&record.FrameCount,
		&record.MaxSpeed,
		&record.AverageSpeed,
	)
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("error scanning session: %s", err)
	}
	record.Homography = []byte(homographyJSON)
	return record, nil
}
