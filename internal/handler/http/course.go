package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	"github.com/lucadeg/Esame-de-gregorio/internal/service"
	"github.com/lucadeg/Esame-de-gregorio/pkg/pagination"
	"github.com/lucadeg/Esame-de-gregorio/pkg/validator"
)

// CourseHandler handles HTTP requests for course catalog endpoints.
type CourseHandler struct {
	service *service.CourseService
	logger  *slog.Logger
}

// NewCourseHandler creates a new course HTTP handler.
func NewCourseHandler(svc *service.CourseService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{service: svc, logger: logger}
}

// CreateCourseRequest is the JSON request body for creating a course.
type CreateCourseRequest struct {
	Title         string    `json:"title" validate:"required,min=1,max=200"`
	Instructor    string    `json:"instructor" validate:"required,min=1,max=100"`
	Location      string    `json:"location" validate:"required,min=1,max=100"`
	Category      string    `json:"category,omitempty" validate:"omitempty,max=50"`
	Description   string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	Capacity      int       `json:"capacity" validate:"gte=0"`
	Price         float64   `json:"price" validate:"gte=0"`
	DurationHours int       `json:"duration_hours,omitempty" validate:"gte=0"`
}

// UpdateCourseRequest is the JSON request body for updating a course.
type UpdateCourseRequest struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Instructor    *string    `json:"instructor,omitempty" validate:"omitempty,min=1,max=100"`
	Location      *string    `json:"location,omitempty" validate:"omitempty,min=1,max=100"`
	Category      *string    `json:"category,omitempty" validate:"omitempty,max=50"`
	Description   *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	Price         *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	DurationHours *int       `json:"duration_hours,omitempty" validate:"omitempty,gte=0"`
}

// Create handles POST /api/v1/courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	course, err := h.service.Create(r.Context(), service.CreateCourseInput{
		Title:         req.Title,
		Instructor:    req.Instructor,
		Location:      req.Location,
		Category:      req.Category,
		Description:   req.Description,
		StartTime:     req.StartTime,
		Capacity:      req.Capacity,
		Price:         req.Price,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: course})
}

// Get handles GET /api/v1/courses/{id}
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := courseIDParam(w, r)
	if !ok {
		return
	}

	course, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: course})
}

// List handles GET /api/v1/courses
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := courseFilterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	page := pagination.FromRequest(r)

	result, err := h.service.List(r.Context(), filter, page)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// ListUpcoming handles GET /api/v1/courses/upcoming
func (h *CourseHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListUpcoming(r.Context())
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: courses})
}

// Update handles PUT /api/v1/courses/{id}
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	id, ok := courseIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	course, err := h.service.Update(r.Context(), id, service.UpdateCourseInput{
		Title:         req.Title,
		Instructor:    req.Instructor,
		Location:      req.Location,
		Category:      req.Category,
		Description:   req.Description,
		StartTime:     req.StartTime,
		Price:         req.Price,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: course})
}

// Delete handles DELETE /api/v1/courses/{id}
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := courseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{
		"id":     strconv.FormatInt(id, 10),
		"status": "deleted",
	}})
}

// courseIDParam parses the {id} route parameter, writing a 400 on failure.
func courseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "course id must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}

// courseFilterFromQuery builds a listing filter from URL query parameters.
func courseFilterFromQuery(r *http.Request) (domain.CourseFilter, error) {
	q := r.URL.Query()
	filter := domain.CourseFilter{
		Title:         q.Get("title"),
		Location:      q.Get("location"),
		Instructor:    q.Get("instructor"),
		Category:      q.Get("category"),
		OnlyAvailable: q.Get("only_available") == "true",
	}

	if raw := q.Get("start_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.CourseFilter{}, errInvalidTimeParam("start_from")
		}
		filter.StartFrom = &t
	}
	if raw := q.Get("start_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.CourseFilter{}, errInvalidTimeParam("start_to")
		}
		filter.StartTo = &t
	}

	return filter, nil
}

type timeParamError string

func (e timeParamError) Error() string {
	return string(e) + " must be an RFC 3339 timestamp"
}

func errInvalidTimeParam(name string) error {
	return timeParamError(name)
}
