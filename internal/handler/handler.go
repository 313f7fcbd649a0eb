package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/adomako/registrar/internal/exam"
	appI18n "github.com/adomako/registrar/internal/i18n"
	"github.com/adomako/registrar/internal/model"
	"github.com/adomako/registrar/internal/store"
)

// Config holds runtime HTTP parameters set via CLI flags.
type Config struct {
	SecureCookies bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	exams    *exam.Service
	validate *validator.Validate
	config   Config
}

// New creates a new Handler.
func New(s *store.Store, svc *exam.Service, cfg Config) *Handler {
	return &Handler{
		store:    s,
		exams:    svc,
		validate: validator.New(),
		config:   cfg,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleStudent))
			r.Post("/api/exams/{examID}/submit", h.handleSubmitExam)
			r.Get("/api/results/{resultID}", h.handleResult)
			r.Get("/api/profile", h.handleProfile)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin, model.UserRoleTeacher))
				r.Get("/exams", h.handleListExams)
				r.Post("/exams", h.handleCreateExam)
				r.Post("/exams/{examID}/questions", h.handleAddQuestion)
				r.Get("/exams/{examID}/questions", h.handleListQuestions)
				r.Patch("/exams/{examID}/status", h.handleSetExamStatus)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin))
				r.Get("/students", h.handleListStudents)
				r.Post("/students", h.handleCreateStudent)
				r.Patch("/students/{studentID}/suspend", h.handleSuspendStudent)
				r.Patch("/students/{studentID}/expel", h.handleExpelStudent)
				r.Get("/levels", h.handleListLevels)
				r.Get("/terms", h.handleListTerms)
				r.Post("/terms", h.handleCreateTerm)
				r.Get("/years", h.handleListYears)
				r.Post("/years", h.handleCreateYear)
				r.Get("/results", h.handleListResults)
				r.Post("/results/{publicID}/publish", h.handlePublishResult)
				r.Get("/users", h.handleListUsers)
				r.Post("/users", h.handleCreateUser)
				r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
			})
		})
	})
}

// envelope is the JSON response shape for every endpoint.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, code int, msgID string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	status := "success"
	if code >= 400 {
		status = "error"
	}
	if err := json.NewEncoder(w).Encode(envelope{
		Status:  status,
		Message: appI18n.T(r.Context(), msgID),
		Data:    data,
	}); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondErr maps the caller-visible error taxonomy onto HTTP statuses
// and localized messages.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var code int
	var msgID string
	switch {
	case errors.Is(err, model.ErrStudentNotFound):
		code, msgID = http.StatusNotFound, "StudentNotFound"
	case errors.Is(err, model.ErrExamNotFound):
		code, msgID = http.StatusNotFound, "ExamNotFound"
	case errors.Is(err, model.ErrIncompleteSubmission):
		code, msgID = http.StatusBadRequest, "IncompleteSubmission"
	case errors.Is(err, model.ErrDuplicateSubmission):
		code, msgID = http.StatusConflict, "DuplicateSubmission"
	case errors.Is(err, model.ErrSubmissionForbidden):
		code, msgID = http.StatusForbidden, "SubmissionForbidden"
	case errors.Is(err, model.ErrResultNotAvailable):
		code, msgID = http.StatusForbidden, "ResultNotAvailable"
	case errors.Is(err, model.ErrNotFound):
		code, msgID = http.StatusNotFound, "NotFound"
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.respond(w, r, code, msgID, nil)
}

// decode parses a JSON request body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("parse body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("validate body: %w", err)
	}
	return nil
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn("bad request", "method", r.Method, "path", r.URL.Path, "error", err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(envelope{
		Status:  "error",
		Message: appI18n.Td(r.Context(), "InvalidRequest", map[string]any{"Reason": err.Error()}),
	})
}
