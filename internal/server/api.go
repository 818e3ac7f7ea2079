package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/desertthunder/rivora/internal/tasks"
)

// maxFormMemory bounds the multipart form kept in memory; the rest spills to temp files.
const maxFormMemory = 1 << 20

// Gallery is the subset of gallery.Store served by the API.
type Gallery interface {
	IdentitySource
	Filtered(f models.Filter) []models.MediaItem
	Get(id int64) (models.MediaItem, error)
	ToggleFavorite(ctx context.Context, id int64) error
}

// Submitter starts a generation. Implemented by tasks.SubmissionController.
type Submitter interface {
	Generate(ctx context.Context, progress chan<- tasks.ProgressUpdate, req tasks.Request) (models.MediaItem, error)
}

// API serves the gallery, submissions and plan listing as JSON.
type API struct {
	gallery   Gallery
	submitter Submitter
	logger    *log.Logger
}

// NewAPI creates an [API]. A nil logger discards output.
func NewAPI(gallery Gallery, submitter Submitter, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &API{gallery: gallery, submitter: submitter, logger: shared.WithLogger(logger, "component", "api")}
}

// Register mounts the routes on r. Generation routes require a signed-in user.
func (a *API) Register(r Router) {
	r.Handler(HealthHandler{})
	r.Handle(http.MethodGet, "/api/plans", http.HandlerFunc(a.plans))

	r.Use(RequireIdentity(a.gallery))
	r.Handle(http.MethodGet, "/api/generations", http.HandlerFunc(a.list))
	r.Handle(http.MethodPost, "/api/generations", http.HandlerFunc(a.create))
	r.Handle(http.MethodPost, "/api/generations/{id}/favorite", http.HandlerFunc(a.favorite))
}

// NewHandler builds the complete middleware-wrapped router for the API.
func NewHandler(gallery Gallery, submitter Submitter, logger *log.Logger) http.Handler {
	api := NewAPI(gallery, submitter, logger)
	router := NewBasicRouter()
	router.Use(RequestLogger(api.logger), Recoverer(api.logger))
	api.Register(router)
	return router
}

type listResponse struct {
	Filter string             `json:"filter"`
	Count  int                `json:"count"`
	Items  []models.MediaItem `json:"items"`
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filterType, err := models.ParseFilterType(query.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, tasks.UserMessage(err))
		return
	}

	favorites := false
	if v := query.Get("favorites"); v != "" {
		if favorites, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid favorites value %q", v))
			return
		}
	}

	filter := models.Filter{Type: filterType, FavoritesOnly: favorites}
	items := a.gallery.Filtered(filter)
	writeJSON(w, http.StatusOK, listResponse{Filter: filter.String(), Count: len(items), Items: items})
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, tasks.MaxAttachmentBytes+maxFormMemory)

	req, err := parseRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = shared.ErrFileTooLarge
		}
		writeError(w, statusFor(err), tasks.UserMessage(err))
		return
	}

	item, err := a.submitter.Generate(r.Context(), nil, req)
	if err != nil {
		a.logger.Warn("submission rejected", "id", RequestID(r.Context()), "error", err)
		writeError(w, statusFor(err), tasks.UserMessage(err))
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func parseRequest(r *http.Request) (tasks.Request, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return tasks.Request{}, err
	}

	req := tasks.Request{Prompt: r.FormValue("prompt")}

	if v := r.FormValue("generationType"); v != "" {
		t, err := models.ParseMediaType(v)
		if err != nil {
			return tasks.Request{}, err
		}
		req.Type = t
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return req, nil
	case err != nil:
		return tasks.Request{}, err
	}
	defer file.Close()

	if header.Size > tasks.MaxAttachmentBytes {
		return tasks.Request{}, shared.ErrFileTooLarge
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return tasks.Request{}, err
	}

	attachment := models.BytesAttachment(header.Filename, header.Header.Get("Content-Type"), data)
	req.Attachment = &attachment
	return req, nil
}

func (a *API) favorite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid id %q", r.PathValue("id")))
		return
	}

	if _, err := a.gallery.Get(id); err != nil {
		writeError(w, statusFor(err), tasks.UserMessage(err))
		return
	}

	if err := a.gallery.ToggleFavorite(r.Context(), id); err != nil {
		writeError(w, statusFor(err), tasks.UserMessage(err))
		return
	}

	item, err := a.gallery.Get(id)
	if err != nil {
		writeError(w, statusFor(err), tasks.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SubscriptionPlans())
}

// HealthHandler answers liveness checks.
type HealthHandler struct{}

func (HealthHandler) Routes() []string { return []string{"GET /health"} }

func (HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps domain errors to response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrEmptyPrompt),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrFileTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrAuthRequired), errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, shared.ErrNetwork),
		errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrUnrecognizedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
