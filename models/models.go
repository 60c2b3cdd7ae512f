package models

import (
	"encoding/json"
	"time"

	"court-motion/pose"
)

// FramePayload is one pose-detector result as pushed by the host over the
// socket: a flat landmark list plus the video-clock timestamp in seconds.
type FramePayload struct {
	Landmarks []pose.Landmark `json:"landmarks"`
	Timestamp float64         `json:"timestamp"`
}

// ClickPayload is a single calibration click: the named court reference
// point and the pixel position where the user clicked it.
type ClickPayload struct {
	PointID    string  `json:"pointId"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// ModePayload selects a calibration mode.
type ModePayload struct {
	ModeID string `json:"modeId"`
}

// SettingsPayload carries the user-editable calibration settings.
type SettingsPayload struct {
	UseHeightCalibration bool    `json:"useHeightCalibration"`
	PlayerHeightCm       float64 `json:"playerHeight"`
	UseCourtCalibration  bool    `json:"useCourtCalibration"`
	CourtType            string  `json:"courtType"`
}

// SessionRecord is a stored analysis session: the confirmed calibration
// plus a rollup of the speed metrics observed under it.
type SessionRecord struct {
	ID                  int64           `json:"id"`
	Timestamp           time.Time       `json:"timestamp"`
	CourtType           string          `json:"courtType"`
	ModeID              string          `json:"modeId"`
	PointCount          int             `json:"pointCount"`
	CalibrationAccuracy float64         `json:"calibrationAccuracy"` // 0-100%
	ReprojectionError   float64         `json:"reprojectionError"`   // meters
	Homography          json.RawMessage `json:"homography"`
	FrameCount          int64           `json:"frameCount"`
	MaxSpeed            float64         `json:"maxSpeed"`     // m/s
	AverageSpeed        float64         `json:"averageSpeed"` // m/s
}

// SpeedSample is one persisted per-frame measurement, keyed to its session.
type SpeedSample struct {
	SessionID          int64   `json:"sessionId"`
	Timestamp          float64 `json:"timestamp"` // video clock, seconds
	Speed              float64 `json:"speed"`
	GeneralMovingSpeed float64 `json:"generalMovingSpeed"`
	Clamped            bool    `json:"clamped"`
}
