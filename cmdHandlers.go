package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"court-motion/court"
	"court-motion/db"
	"court-motion/geom"
	"court-motion/homography"
	"court-motion/speed"
	"court-motion/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
)

type apiError struct {
	Message string `json:"message"`
}

type estimateRequest struct {
	Pairs []homography.Correspondence `json:"pairs"`
	Seed  *int64                      `json:"seed,omitempty"`
}

type courtPointsResponse struct {
	CourtType  court.Type              `json:"courtType"`
	Dimensions court.Dimensions        `json:"dimensions"`
	Points     map[string]geom.Point3D `json:"points"`
	Modes      []court.Mode            `json:"modes"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

func allowCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
}

// newEstimateHandler exposes one-shot homography estimation over HTTP, for
// hosts that batch their correspondences instead of streaming clicks.
func newEstimateHandler() http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()
		allowCORS(w, "POST")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req estimateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to parse estimate request", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		estimator := homography.NewEstimator()
		if req.Seed != nil {
			estimator = homography.NewEstimatorWithSeed(*req.Seed)
		}

		started := time.Now()
		result, err := estimator.Estimate(req.Pairs)
		if err != nil {
			if errors.Is(err, homography.ErrInsufficientPoints) ||
				errors.Is(err, homography.ErrDegenerateConfiguration) {
				writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "homography estimation failed", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "estimation error")
			return
		}

		logger.InfoContext(ctx, "homography estimated over HTTP",
			slog.Int("pairCount", len(req.Pairs)),
			slog.Float64("latency_ms", time.Since(started).Seconds()*1000),
			slog.Float64("confidence", result.Confidence),
		)
		writeJSON(w, http.StatusOK, result)
	}
}

// newCourtPointsHandler dumps the reference geometry for a court type so
// hosts can render clickable markers.
func newCourtPointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowCORS(w, "GET")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		courtType := court.Type(r.URL.Query().Get("court"))
		if courtType == "" {
			courtType = court.Badminton
		}

		dims, err := court.DimensionsFor(courtType)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		ids, err := court.PointIDs(courtType)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		points := make(map[string]geom.Point3D, len(ids))
		for _, id := range ids {
			p, err := court.ReferencePoint(courtType, id)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			points[id] = p
		}

		writeJSON(w, http.StatusOK, courtPointsResponse{
			CourtType:  courtType,
			Dimensions: dims,
			Points:     points,
			Modes:      court.Modes(),
		})
	}
}

// newSessionsHandler lists stored sessions, or one session with its
// samples when ?id= is given.
func newSessionsHandler(dbClient db.Client) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()
		allowCORS(w, "GET")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if dbClient == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "session storage unavailable")
			return
		}

		if idParam := r.URL.Query().Get("id"); idParam != "" {
			id, err := strconv.ParseInt(idParam, 10, 64)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid session id")
				return
			}
			record, found, err := dbClient.GetSessionByID(id)
			if err != nil {
				err := xerrors.New(err)
				logger.ErrorContext(ctx, "failed to load session", slog.Any("error", err))
				writeJSONError(w, http.StatusInternalServerError, "failed to load session")
				return
			}
			if !found {
				writeJSONError(w, http.StatusNotFound, "session not found")
				return
			}
			samples, err := dbClient.GetSpeedSamples(id)
			if err != nil {
				err := xerrors.New(err)
				logger.ErrorContext(ctx, "failed to load speed samples", slog.Any("error", err))
				writeJSONError(w, http.StatusInternalServerError, "failed to load speed samples")
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"session": record,
				"samples": samples,
			})
			return
		}

		records, err := dbClient.GetAllSessions()
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to load sessions", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load sessions")
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// speedConfigFromEnv builds the per-frame pipeline config, env-overridable
// the same way the rest of the server tunables are.
func speedConfigFromEnv() speed.Config {
	cfg := speed.DefaultConfig()

	if v, err := strconv.Atoi(utils.GetEnv("SMOOTHING_WINDOW", "")); err == nil && v > 0 {
		cfg.SmoothingWindow = v
	}
	if v, err := strconv.Atoi(utils.GetEnv("VELOCITY_SAMPLES", "")); err == nil && v > 0 {
		cfg.VelocitySamples = v
	}
	if v, err := strconv.ParseFloat(utils.GetEnv("VISIBILITY_THRESHOLD", ""), 64); err == nil && v > 0 {
		cfg.VisibilityThreshold = v
	}
	if v, err := strconv.Atoi(utils.GetEnv("MIN_VISIBLE_LANDMARKS", "")); err == nil && v > 0 {
		cfg.MinVisibleLandmarks = v
	}
	if v, err := strconv.ParseFloat(utils.GetEnv("MAX_SPEED_MS", ""), 64); err == nil && v > 0 {
		cfg.MaxSpeed = v
	}
	if x, err := strconv.ParseFloat(utils.GetEnv("SCALE_PROBE_X", ""), 64); err == nil {
		if y, err := strconv.ParseFloat(utils.GetEnv("SCALE_PROBE_Y", ""), 64); err == nil {
			cfg.ScaleProbe = geom.Point2D{X: x, Y: y, Space: geom.SpacePixel}
		}
	}
	return cfg
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	defaultCourt := court.Type(utils.GetEnv("COURT_TYPE", string(court.Badminton)))
	if _, err := court.DimensionsFor(defaultCourt); err != nil {
		log.Fatalf("invalid COURT_TYPE %q: %v", defaultCourt, err)
	}
	defaultMode := utils.GetEnv("CALIBRATION_MODE", "full-court")
	if _, err := court.ModeByID(defaultMode); err != nil {
		log.Fatalf("invalid CALIBRATION_MODE %q: %v", defaultMode, err)
	}

	dbClient, err := db.NewDBClient()
	if err != nil {
		log.Printf("WARNING: session storage unavailable: %v\n", err)
		log.Println("The server will run without persistence; finished sessions will be discarded.")
		dbClient = nil
	} else {
		defer dbClient.Close()
	}

	controller := newSocketController(dbClient, defaultCourt, defaultMode)

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		log.Printf("CONNECTED: %s, remote addr: %s\n", socket.ID(), socket.RemoteAddr())
		cs, err := controller.openSession(socket)
		if err != nil {
			return err
		}
		controller.emitState(socket, cs)
		return nil
	})

	server.OnEvent("/", "setMode", func(socket socketio.Conn, msg string) {
		controller.handleSetMode(socket, msg)
	})

	server.OnEvent("/", "addPoint", func(socket socketio.Conn, msg string) {
		controller.handleAddPoint(socket, msg)
	})

	server.OnEvent("/", "undoPoint", func(socket socketio.Conn) {
		controller.handleUndoPoint(socket)
	})

	server.OnEvent("/", "calibrate", func(socket socketio.Conn) {
		// Estimation can take a moment on large point sets; don't stall
		// the event loop, but keep panics contained.
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handleCalibrate for socket %s: %v\n", socket.ID(), r)
					emitError(socket, "internal server error during calibration")
				}
			}()
			controller.handleCalibrate(socket)
		}()
	})

	server.OnEvent("/", "confirmCalibration", func(socket socketio.Conn) {
		controller.handleConfirmCalibration(socket)
	})

	server.OnEvent("/", "resetCalibration", func(socket socketio.Conn) {
		controller.handleResetCalibration(socket)
	})

	server.OnEvent("/", "updateSettings", func(socket socketio.Conn, msg string) {
		controller.handleUpdateSettings(socket, msg)
	})

	server.OnEvent("/", "poseFrame", func(socket socketio.Conn, msg string) {
		controller.handlePoseFrame(socket, msg)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
		controller.closeSession(s)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/homography/estimate", newEstimateHandler())
	mux.HandleFunc("/api/court/points", newCourtPointsHandler())
	mux.HandleFunc("/api/sessions", newSessionsHandler(dbClient))
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		cert_key := utils.GetEnv("CERT_KEY", "")
		cert_file := utils.GetEnv("CERT_FILE", "")
		if cert_key == "" || cert_file == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(cert_file, cert_key); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
