// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/validation"
	"offer-ledger/internal/lifecycle"
	"offer-ledger/internal/models"
	"offer-ledger/internal/notify"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Applications is the part of the lifecycle engine exposed over HTTP.
type Applications interface {
	File(ctx context.Context, req lifecycle.FileRequest) (*models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Application, error)
	Respond(ctx context.Context, id string, action models.Action, actor string) (*models.Application, error)
}

// Purger permanently removes applications.
type Purger interface {
	Purge(ctx context.Context, id string, force bool, actor string) (*lifecycle.PurgeResult, error)
}

// Deps wires the server. Ready may be nil.
type Deps struct {
	Applications Applications
	Purger       Purger
	Ready        func(ctx context.Context) error
	AdminToken   string
	Logger       logger.Logger
	Now          func() time.Time
}

type Server struct {
	apps       Applications
	purger     Purger
	ready      func(ctx context.Context) error
	adminToken string
	log        logger.Logger
	now        func() time.Time
}

func NewServer(d Deps) *Server {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		apps:       d.Applications,
		purger:     d.Purger,
		ready:      d.Ready,
		adminToken: d.AdminToken,
		log:        logger.Component(d.Logger, "api"),
		now:        now,
	}
}

// Routes returns the mux serving health, metrics and the application API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/webapp_data", s.preview)
	mux.HandleFunc("POST /api/applications", s.file)
	mux.HandleFunc("GET /api/applications", s.list)
	mux.HandleFunc("GET /api/applications/{id}", s.get)
	mux.HandleFunc("POST /api/applications/{id}/actions", s.respond)
	mux.HandleFunc("DELETE /api/admin/applications/{id}", s.requireAdmin(s.purge))
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().Format(time.RFC3339),
	})
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.log.Warn("readiness check failed", map[string]interface{}{"error": err})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   s.now().Format(time.RFC3339),
	})
}

type previewResponse struct {
	Valid   bool                         `json:"valid"`
	Errors  []validation.ValidationError `json:"errors,omitempty"`
	Offer   *models.Offer                `json:"offer,omitempty"`
	Preview string                       `json:"preview,omitempty"`
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := decodeBody(r, &payload); err != nil {
		s.writeError(w, err)
		return
	}
	offer, res := validation.DecodeOffer(payload)
	if !res.Valid {
		writeJSON(w, http.StatusBadRequest, previewResponse{Errors: res.Errors})
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{Valid: true, Offer: &offer, Preview: notify.Preview(offer)})
}

type fileRequest struct {
	OwnerID       string                 `json:"ownerId"`
	NotifyAddress string                 `json:"notifyAddress"`
	Offer         map[string]interface{} `json:"offer"`
}

func (s *Server) file(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	offer, res := validation.DecodeOffer(req.Offer)
	if !res.Valid {
		s.writeError(w, apperrors.NewApplicationValidationFailedError(strings.Join(res.GetErrorMessages(), "; ")))
		return
	}
	app, err := s.apps.File(r.Context(), lifecycle.FileRequest{
		OwnerID:       req.OwnerID,
		NotifyAddress: req.NotifyAddress,
		Offer:         offer,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view(app))
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		s.writeError(w, apperrors.NewApplicationValidationFailedError("owner query parameter is required"))
		return
	}
	apps, err := s.apps.ListByOwner(r.Context(), owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]applicationView, 0, len(apps))
	for _, app := range apps {
		out = append(out, view(app))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": out})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(app))
}

type actionRequest struct {
	Action string `json:"action"`
	Actor  string `json:"actor"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	action := models.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	app, err := s.apps.Respond(r.Context(), r.PathValue("id"), action, req.Actor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(app))
}

func (s *Server) purge(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	actor := r.Header.Get("X-Actor")
	if actor == "" {
		actor = "admin-api"
	}
	res, err := s.purger.Purge(r.Context(), r.PathValue("id"), force, actor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" && r.Header.Get("X-Admin-Token") != s.adminToken {
			writeJSON(w, http.StatusUnauthorized, errorBody{Code: "UNAUTHORIZED", Message: "admin token required"})
			return
		}
		next(w, r)
	}
}

type applicationView struct {
	*models.Application
	AvailableActions []models.Action `json:"availableActions"`
}

func view(app *models.Application) applicationView {
	actions := models.AvailableActions(app)
	if actions == nil {
		actions = []models.Action{}
	}
	return applicationView{Application: app, AvailableActions: actions}
}

func decodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewApplicationValidationFailedError("read body: " + err.Error())
	}
	if len(body) == 0 {
		return apperrors.NewApplicationValidationFailedError("empty body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.NewApplicationValidationFailedError("malformed json: " + err.Error())
	}
	return nil
}
