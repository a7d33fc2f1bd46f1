// Package server exposes the skill catalog and its selection rules over a
// small JSON API for browser-based pickers.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillstack/pkg/defaults"
	"github.com/jingkaihe/skillstack/pkg/logger"
	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/resolver"
	"github.com/jingkaihe/skillstack/pkg/telemetry"
)

// Config holds the listen address of the API server
type Config struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server serves read-only queries over one loaded matrix
type Server struct {
	router   *mux.Router
	resolver *resolver.Resolver
	mappings *defaults.Mappings
	config   *Config
	server   *http.Server
}

// New creates an API server. mappings may be nil, in which case validation
// responses carry no agent partition.
func New(config *Config, r *resolver.Resolver, mappings *defaults.Mappings) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}
	s := &Server{
		router:   mux.NewRouter(),
		resolver: r,
		mappings: mappings,
		config:   config,
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", s.handleListCategories).Methods("GET")
	api.HandleFunc("/categories/{id}/skills", s.handleCategorySkills).Methods("GET")
	api.HandleFunc("/skills/{id}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/stacks", s.handleListStacks).Methods("GET")
	api.HandleFunc("/validate", s.handleValidate).Methods("POST")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// selectionQuery reads ?selected=a,b&expert=true
func selectionQuery(r *http.Request) ([]string, resolver.Options) {
	query := r.URL.Query()
	var selected []string
	for _, raw := range query["selected"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				selected = append(selected, id)
			}
		}
	}
	expert, _ := strconv.ParseBool(query.Get("expert"))
	return selected, resolver.Options{ExpertMode: expert}
}

// CategoryView is a category node with its selection state
type CategoryView struct {
	*matrix.Category
	SkillCount     int            `json:"skillCount"`
	AllDisabled    bool           `json:"allDisabled"`
	DisabledReason string         `json:"disabledReason,omitempty"`
	Subcategories  []CategoryView `json:"subcategories,omitempty"`
}

func (s *Server) categoryView(c *matrix.Category, selected []string, opts resolver.Options, seen map[string]bool) CategoryView {
	seen[c.ID] = true
	view := CategoryView{
		Category:   c,
		SkillCount: len(s.resolver.SkillsByCategory(c.ID)),
	}
	view.AllDisabled, view.DisabledReason = s.resolver.IsCategoryAllDisabled(c.ID, selected, opts)
	for _, sub := range s.resolver.Subcategories(c.ID) {
		if seen[sub.ID] {
			continue
		}
		view.Subcategories = append(view.Subcategories, s.categoryView(sub, selected, opts, seen))
	}
	return view
}

// handleListCategories handles GET /api/categories
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	selected, opts := selectionQuery(r)
	seen := make(map[string]bool)

	views := []CategoryView{}
	for _, c := range s.resolver.TopLevelCategories() {
		views = append(views, s.categoryView(c, selected, opts, seen))
	}
	s.writeJSONResponse(r.Context(), w, map[string]any{
		"version":    s.resolver.Matrix().Version,
		"categories": views,
	})
}

// handleCategorySkills handles GET /api/categories/{id}/skills
func (s *Server) handleCategorySkills(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	category, ok := s.resolver.Matrix().Category(id)
	if !ok {
		s.writeErrorResponse(r.Context(), w, http.StatusNotFound, fmt.Sprintf("category %s not found", id), nil)
		return
	}

	selected, opts := selectionQuery(r)
	allDisabled, reason := s.resolver.IsCategoryAllDisabled(id, selected, opts)
	s.writeJSONResponse(r.Context(), w, map[string]any{
		"category":       category,
		"skills":         s.resolver.AvailableSkills(id, selected, opts),
		"allDisabled":    allDisabled,
		"disabledReason": reason,
	})
}

// handleGetSkill handles GET /api/skills/{id}; aliases are accepted
func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	id := s.resolver.ResolveAlias(mux.Vars(r)["id"])
	skill, ok := s.resolver.Matrix().Skill(id)
	if !ok {
		s.writeErrorResponse(r.Context(), w, http.StatusNotFound, fmt.Sprintf("skill %s not found", mux.Vars(r)["id"]), nil)
		return
	}
	s.writeJSONResponse(r.Context(), w, skill)
}

// handleListStacks handles GET /api/stacks
func (s *Server) handleListStacks(w http.ResponseWriter, r *http.Request) {
	stacks := s.resolver.Matrix().SuggestedStacks
	if stacks == nil {
		stacks = []*matrix.Stack{}
	}
	s.writeJSONResponse(r.Context(), w, map[string]any{"stacks": stacks})
}

// ValidateRequest is the body of POST /api/validate. Stack skills are added
// ahead of the listed skills.
type ValidateRequest struct {
	Skills []string `json:"skills"`
	Stack  string   `json:"stack,omitempty"`
}

// ValidateResponse is the validation report plus the resolved selection
type ValidateResponse struct {
	*resolver.ValidationResult
	Skills []string            `json:"skills"`
	Agents map[string][]string `json:"agents,omitempty"`
}

// handleValidate handles POST /api/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(r.Context(), w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	selection := req.Skills
	if req.Stack != "" {
		stackSkills, ok := s.resolver.ExpandStack(req.Stack)
		if !ok {
			s.writeErrorResponse(r.Context(), w, http.StatusNotFound, fmt.Sprintf("stack %s not found", req.Stack), nil)
			return
		}
		selection = append(stackSkills, selection...)
	}

	var resp ValidateResponse
	_ = telemetry.WithSpan(r.Context(), "selection.validate", func(ctx context.Context) error {
		resp.ValidationResult = s.resolver.Validate(selection)
		resp.Skills = s.resolver.Canonical(selection)
		if s.mappings != nil {
			resp.Agents = s.mappings.Partition(s.resolver.Matrix(), resp.Skills)
		}
		telemetry.SetAttributes(ctx,
			attribute.Int("selection.size", len(resp.Skills)),
			attribute.Bool("selection.valid", resp.Valid),
		)
		return nil
	})
	s.writeJSONResponse(r.Context(), w, resp)
}

func (s *Server) writeJSONResponse(ctx context.Context, w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(ctx).WithError(err).Warn(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode error response")
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrapf(err, "failed to listen on %s", address)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
