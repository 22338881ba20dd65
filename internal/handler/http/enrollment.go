package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/internal/service"
	"github.com/lucadeg/Esame-de-gregorio/pkg/middleware"
	"github.com/lucadeg/Esame-de-gregorio/pkg/pagination"
	"github.com/lucadeg/Esame-de-gregorio/pkg/validator"
)

// EnrollmentHandler handles HTTP requests for enrollment endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
	logger  *slog.Logger
}

// NewEnrollmentHandler creates a new enrollment HTTP handler.
func NewEnrollmentHandler(svc *service.EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, logger: logger}
}

// CreateEnrollmentRequest is the JSON request body for enrolling a
// participant in a course.
type CreateEnrollmentRequest struct {
	CourseID  int64  `json:"course_id" validate:"required,gt=0"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
}

// Create handles POST /api/v1/enrollments
func (h *EnrollmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	enrollment, err := h.service.Enroll(r.Context(), req.CourseID, domain.Participant{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: enrollment})
}

// List handles GET /api/v1/enrollments. Callers filter by course_id or
// participant; only admins may list everything unfiltered.
func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if raw := q.Get("course_id"); raw != "" {
		courseID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || courseID <= 0 {
			writeJSON(w, http.StatusBadRequest, response{
				Error: &errorResponse{Code: "INVALID_INPUT", Message: "course_id must be a positive integer"},
			})
			return
		}

		enrollments, err := h.service.ListByCourse(r.Context(), courseID)
		if err != nil {
			writeAppError(w, r, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, response{Data: enrollments})
		return
	}

	if participant := q.Get("participant"); participant != "" {
		enrollments, err := h.service.ListByParticipant(r.Context(), participant)
		if err != nil {
			writeAppError(w, r, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, response{Data: enrollments})
		return
	}

	if role := middleware.RoleFromContext(r.Context()); role != domain.RoleAdmin {
		writeJSON(w, http.StatusForbidden, response{
			Error: &errorResponse{Code: "FORBIDDEN", Message: "course_id or participant filter is required"},
		})
		return
	}

	result, err := h.service.List(r.Context(), pagination.FromRequest(r))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// Get handles GET /api/v1/enrollments/{id}
func (h *EnrollmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := enrollmentIDParam(w, r)
	if !ok {
		return
	}

	enrollment, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: enrollment})
}

// Delete handles DELETE /api/v1/enrollments/{id}
func (h *EnrollmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := enrollmentIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{
		"id":     strconv.FormatInt(id, 10),
		"status": "cancelled",
	}})
}

// enrollmentIDParam parses the {id} route parameter, writing a 400 on failure.
func enrollmentIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "enrollment id must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}
