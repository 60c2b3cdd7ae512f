package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"sync"
	"time"

	"court-motion/calibration"
	"court-motion/court"
	"court-motion/db"
	"court-motion/geom"
	"court-motion/models"
	"court-motion/pose"
	"court-motion/speed"
	"court-motion/store"
	"court-motion/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

// clientSession is the per-connection analysis state: one calibration
// session, one speed estimator, and the rollup persisted on disconnect.
type clientSession struct {
	mu sync.Mutex

	calib    *calibration.Session
	est      *speed.Estimator
	settings calibration.Settings

	frameCount int64
	sumSpeed   float64
	maxSpeed   float64
	samples    []models.SpeedSample
}

// maxBufferedSamples bounds the per-connection sample trace; at 30 fps it
// covers roughly the last 11 minutes of play.
const maxBufferedSamples = 20000

// recordSample folds a valid frame's metrics into the session rollup and
// the buffered sample trace. The rollup stats stay exact for the whole
// connection; once the trace hits its cap the oldest half is dropped so a
// long-running connection cannot grow the buffer without bound. Caller
// holds cs.mu.
func (cs *clientSession) recordSample(metrics speed.Metrics) {
	cs.frameCount++
	cs.sumSpeed += metrics.Speed
	if metrics.Speed > cs.maxSpeed {
		cs.maxSpeed = metrics.Speed
	}
	if len(cs.samples) >= maxBufferedSamples {
		kept := copy(cs.samples, cs.samples[maxBufferedSamples/2:])
		cs.samples = cs.samples[:kept]
	}
	cs.samples = append(cs.samples, models.SpeedSample{
		Timestamp:          metrics.Timestamp,
		Speed:              metrics.Speed,
		GeneralMovingSpeed: metrics.GeneralMovingSpeed,
		Clamped:            metrics.Clamped,
	})
}

type socketController struct {
	mu       sync.Mutex
	sessions map[string]*clientSession

	store        db.Client
	defaultCourt court.Type
	defaultMode  string
}

func newSocketController(dbClient db.Client, defaultCourt court.Type, defaultMode string) *socketController {
	return &socketController{
		sessions:     make(map[string]*clientSession),
		store:        dbClient,
		defaultCourt: defaultCourt,
		defaultMode:  defaultMode,
	}
}

func (c *socketController) openSession(socket socketio.Conn) (*clientSession, error) {
	logger := utils.GetLogger()
	ctx := context.Background()

	calib, err := calibration.NewSession(c.defaultCourt, c.defaultMode)
	if err != nil {
		return nil, err
	}

	settings, err := store.LoadSettings(c.defaultCourt)
	if err != nil {
		err := xerrors.New(err)
		logger.WarnContext(ctx, "failed to load persisted settings, using defaults", slog.Any("error", err))
		settings, err = calibration.DefaultSettings(c.defaultCourt)
		if err != nil {
			return nil, err
		}
	}

	cs := &clientSession{
		calib:    calib,
		est:      speed.NewEstimator(speedConfigFromEnv()),
		settings: settings,
	}
	cs.est.SetSettings(settings)

	c.mu.Lock()
	c.sessions[socket.ID()] = cs
	c.mu.Unlock()
	return cs, nil
}

func (c *socketController) session(socket socketio.Conn) (*clientSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cs, ok := c.sessions[socket.ID()]
	return cs, ok
}

func (c *socketController) closeSession(socket socketio.Conn) {
	c.mu.Lock()
	cs, ok := c.sessions[socket.ID()]
	delete(c.sessions, socket.ID())
	c.mu.Unlock()
	if !ok {
		return
	}
	c.persistSession(socket.ID(), cs)
}

// persistSession writes the finished session and its samples, if the
// connection ever confirmed a calibration and analyzed frames under it.
func (c *socketController) persistSession(socketID string, cs *clientSession) {
	logger := utils.GetLogger()
	ctx := context.Background()

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if c.store == nil || cs.calib.State() != calibration.StateConfirmed || cs.frameCount == 0 {
		return
	}

	result := cs.calib.Result()
	if result == nil {
		return
	}
	homographyJSON, err := json.Marshal(result)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to marshal homography for storage", slog.Any("error", err))
		return
	}

	record := models.SessionRecord{
		Timestamp:           time.Now(),
		CourtType:           string(cs.settings.CourtType),
		ModeID:              cs.calib.Mode().ID,
		PointCount:          len(cs.calib.Points()),
		CalibrationAccuracy: cs.settings.CalibrationAccuracy,
		ReprojectionError:   result.ReprojectionError,
		Homography:          homographyJSON,
		FrameCount:          cs.frameCount,
		MaxSpeed:            cs.maxSpeed,
		AverageSpeed:        cs.sumSpeed / float64(cs.frameCount),
	}

	id, err := c.store.StoreSession(&record)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to store session record", slog.Any("error", err))
		return
	}
	for i := range cs.samples {
		cs.samples[i].SessionID = id
	}
	if err := c.store.StoreSpeedSamples(cs.samples); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to store speed samples", slog.Any("error", err))
		return
	}

	log.Printf("[Socket] Persisted session %d for %s: %d frames, avg %.2f m/s\n",
		id, socketID, record.FrameCount, record.AverageSpeed)
}

func (c *socketController) emitState(socket socketio.Conn, cs *clientSession) {
	socket.Emit("calibrationState", cs.calib.Snapshot())
}

func emitError(socket socketio.Conn, message string) {
	socket.Emit("analysisError", map[string]string{"message": message})
}

func (c *socketController) handleSetMode(socket socketio.Conn, msg string) {
	cs, ok := c.session(socket)
	if !ok {
		return
	}

	var payload models.ModePayload
	if err := json.Unmarshal([]byte(msg), &payload); err != nil {
		emitError(socket, "invalid mode payload")
		return
	}

	cs.mu.Lock()
	err := cs.calib.SetMode(payload.ModeID)
	cs.mu.Unlock()
	if err != nil {
		emitError(socket, err.Error())
		return
	}
	c.emitState(socket, cs)
}

func (c *socketController) handleAddPoint(socket socketio.Conn, msg string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	cs, ok := c.session(socket)
	if !ok {
		return
	}

	var payload models.ClickPayload
	if err := json.Unmarshal([]byte(msg), &payload); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse click payload", slog.Any("error", err))
		emitError(socket, "invalid click payload")
		return
	}

	click := geom.Point2D{X: payload.X, Y: payload.Y, Space: geom.SpacePixel}
	cs.mu.Lock()
	err := cs.calib.AddPoint(payload.PointID, click, payload.Confidence)
	cs.mu.Unlock()
	if err != nil {
		emitError(socket, err.Error())
		return
	}
	c.emitState(socket, cs)
}

func (c *socketController) handleUndoPoint(socket socketio.Conn) {
	cs, ok := c.session(socket)
	if !ok {
		return
	}

	cs.mu.Lock()
	err := cs.calib.UndoLastPoint()
	cs.mu.Unlock()
	if err != nil {
		emitError(socket, err.Error())
		return
	}
	c.emitState(socket, cs)
}

func (c *socketController) handleCalibrate(socket socketio.Conn) {
	logger := utils.GetLogger()
	ctx := context.Background()

	cs, ok := c.session(socket)
	if !ok {
		return
	}

	started := time.Now()
	result, err := cs.calib.Calibrate()
	if err != nil {
		emitError(socket, "calibration failed: "+err.Error())
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "calibration failed",
			slog.String("socketID", socket.ID()),
			slog.Any("error", err))
		c.emitState(socket, cs)
		return
	}

	logger.InfoContext(ctx, "calibration complete",
		slog.String("socketID", socket.ID()),
		slog.Float64("latency_ms", time.Since(started).Seconds()*1000),
		slog.Float64("confidence", result.Confidence),
		slog.Float64("reprojectionError", result.ReprojectionError),
		slog.Float64("inlierRatio", result.InlierRatio),
	)
	c.emitState(socket, cs)
}

func (c *socketController) handleConfirmCalibration(socket socketio.Conn) {
	logger := utils.GetLogger()
	ctx := context.Background()

	cs, ok := c.session(socket)
	if !ok {
		return
	}

	cs.mu.Lock()
	err := cs.calib.Confirm()
	if err == nil {
		cs.settings.UseCourtCalibration = true
		cs.settings.ApplyResult(cs.calib.Result())
		cs.est.SetSettings(cs.settings)
		if saveErr := store.SaveSettings(cs.settings); saveErr != nil {
			saveErr := xerrors.New(saveErr)
			logger.ErrorContext(ctx, "failed to persist settings", slog.Any("error", saveErr))
		}
	}
	cs.mu.Unlock()

	if err != nil {
		emitError(socket, err.Error())
		return
	}
	log.Printf("[Socket] Calibration confirmed for %s (accuracy %.1f%%)\n",
		socket.ID(), cs.settings.CalibrationAccuracy)
	c.emitState(socket, cs)
}

func (c *socketController) handleResetCalibration(socket socketio.Conn) {
	cs, ok := c.session(socket)
	if !ok {
		return
	}

	cs.mu.Lock()
	cs.calib.Reset()
	cs.settings.UseCourtCalibration = false
	cs.settings.ApplyResult(nil)
	cs.est.SetSettings(cs.settings)
	cs.mu.Unlock()

	c.emitState(socket, cs)
}

func (c *socketController) handleUpdateSettings(socket socketio.Conn, msg string) {
	cs, ok := c.session(socket)
	if !ok {
		return
	}

	var payload models.SettingsPayload
	if err := json.Unmarshal([]byte(msg), &payload); err != nil {
		emitError(socket, "invalid settings payload")
		return
	}

	cs.mu.Lock()
	updated := cs.settings
	updated.UseHeightCalibration = payload.UseHeightCalibration
	if payload.PlayerHeightCm > 0 {
		updated.PlayerHeightCm = payload.PlayerHeightCm
	}
	updated.UseCourtCalibration = payload.UseCourtCalibration
	if payload.CourtType != "" {
		updated.CourtType = court.Type(payload.CourtType)
	}
	err := updated.Validate()
	if err == nil {
		cs.settings = updated
		cs.est.SetSettings(updated)
	}
	cs.mu.Unlock()

	if err != nil {
		emitError(socket, err.Error())
		return
	}
	c.emitState(socket, cs)
}

func (c *socketController) handlePoseFrame(socket socketio.Conn, msg string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	cs, ok := c.session(socket)
	if !ok {
		return
	}

	var payload models.FramePayload
	if err := json.Unmarshal([]byte(msg), &payload); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse frame payload",
			slog.String("socketID", socket.ID()),
			slog.Any("error", err))
		emitError(socket, "invalid frame payload")
		return
	}
	if len(payload.Landmarks) != pose.LandmarkCount {
		emitError(socket, "malformed frame: wrong landmark count")
		return
	}
	frame := pose.FromSlice(payload.Landmarks, payload.Timestamp)

	cs.mu.Lock()
	metrics, err := cs.est.Process(frame)
	if err == nil && metrics.IsValid {
		cs.recordSample(metrics)
	}
	cs.mu.Unlock()

	if err != nil {
		logger.WarnContext(ctx, "frame skipped",
			slog.String("socketID", socket.ID()),
			slog.Float64("timestamp", payload.Timestamp),
			slog.Any("error", err))
		emitError(socket, err.Error())
		return
	}

	socket.Emit("speedMetrics", metrics)
}
