// Package handler provides the HTTP handlers for the café server.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/stevemurr/cafe-server/auth"
	"github.com/stevemurr/cafe-server/collection"
	"github.com/stevemurr/cafe-server/metrics"
	"github.com/stevemurr/cafe-server/store"
)

// DefaultEntities are the collections mounted under /api.
var DefaultEntities = []string{"productos", "usuarios", "pedidos"}

// usersEntity is the collection registrations are written to.
const usersEntity = "usuarios"

const (
	notFoundMessage = "No encontrado"
	maxBodyBytes    = 1 << 20
)

// Options configures a Handler. Zero values fall back to defaults.
type Options struct {
	Entities       []string
	Verifier       auth.Verifier
	FrontendDir    string
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// Handler holds the server dependencies and registers routes.
type Handler struct {
	collections map[string]*collection.Collection
	verifier    auth.Verifier
	frontendDir string
	logger      *zap.Logger
	metrics     *metrics.Metrics
	mux         *http.ServeMux
	root        http.Handler
}

// New creates a Handler over s and wires up all routes.
func New(s store.Store, opts Options) *Handler {
	if len(opts.Entities) == 0 {
		opts.Entities = DefaultEntities
	}
	if opts.Verifier == nil {
		opts.Verifier = auth.NewDemoVerifier()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	h := &Handler{
		collections: make(map[string]*collection.Collection, len(opts.Entities)),
		verifier:    opts.Verifier,
		frontendDir: opts.FrontendDir,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		mux:         http.NewServeMux(),
	}
	for _, e := range opts.Entities {
		h.collections[e] = collection.New(e, s)
	}
	h.routes(opts.Entities)
	h.root = h.instrument(recoverer(h.logger, cors(h.mux, opts.AllowedOrigins)))
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

// Collection returns the resource mounted for an entity, or nil.
func (h *Handler) Collection(entity string) *collection.Collection {
	return h.collections[entity]
}

func (h *Handler) routes(entities []string) {
	h.mux.HandleFunc("GET /health", h.health)
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics.Handler())
	}

	h.mux.HandleFunc("POST /api/login", h.login)
	if _, ok := h.collections[usersEntity]; ok {
		h.mux.HandleFunc("POST /api/register", h.register)
	}

	for _, e := range entities {
		c := h.collections[e]
		base := "/api/" + e
		h.mux.HandleFunc("GET "+base, h.list(c))
		h.mux.HandleFunc("GET "+base+"/{id}", h.get(c))
		h.mux.HandleFunc("POST "+base, h.create(c))
		h.mux.HandleFunc("PUT "+base+"/{id}", h.update(c))
		h.mux.HandleFunc("DELETE "+base+"/{id}", h.delete(c))
	}

	// Unknown API paths answer in JSON instead of falling through to the
	// front-end. Any path starting with /api is an API path; the front-end
	// handler checks the prefix for paths like /apifoo.
	h.mux.HandleFunc("/api", h.apiNotFound)
	h.mux.HandleFunc("/api/", h.apiNotFound)
	h.mux.HandleFunc("/", h.frontend)
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readRecord decodes a request body holding one JSON object. An empty body
// or a literal null decodes to an empty record.
func readRecord(w http.ResponseWriter, r *http.Request) (store.Record, error) {
	var rec store.Record
	err := readJSON(w, r, &rec)
	if errors.Is(err, io.EOF) {
		return store.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = store.Record{}
	}
	return rec, nil
}

// errTrailingData is returned when a body holds more than one JSON value.
var errTrailingData = errors.New("unexpected data after JSON value")

// readJSON decodes exactly one JSON value from the request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errTrailingData
	}
}

// statusFor maps an error to the HTTP status and message sent to clients.
func statusFor(err error) (int, string) {
	var verr *auth.ValidationError
	switch {
	case errors.Is(err, collection.ErrNotFound):
		return http.StatusNotFound, notFoundMessage
	case errors.Is(err, collection.ErrIDConflict):
		return http.StatusConflict, "El id no coincide con el registro"
	case errors.Is(err, collection.ErrDuplicate):
		return http.StatusConflict, "El registro ya existe"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Credenciales inválidas"
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err))
	}
	writeError(w, status, msg)
}

func badJSON(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "JSON inválido: "+err.Error())
}

// ---------- status endpoints ----------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) apiNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, notFoundMessage)
}

// ---------- collection CRUD ----------

func (h *Handler) list(c *collection.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := c.List(r.Context(), collection.FilterFromQuery(r.URL.Query()))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func (h *Handler) get(c *collection.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := c.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) create(c *collection.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := readRecord(w, r)
		if err != nil {
			badJSON(w, err)
			return
		}
		rec, err := c.Create(r.Context(), payload)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.logger.Debug("record created",
			zap.String("collection", c.Name()),
			zap.Any("id", rec["id"]))
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (h *Handler) update(c *collection.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := readRecord(w, r)
		if err != nil {
			badJSON(w, err)
			return
		}
		rec, err := c.Update(r.Context(), r.PathValue("id"), payload)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) delete(c *collection.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := c.Delete(r.Context(), r.PathValue("id"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": rec})
	}
}
