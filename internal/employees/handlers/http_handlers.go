package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gartstein/roster/internal/employees/metrics"
	"github.com/gartstein/roster/internal/employees/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxUploadBytes caps the multipart request body.
	DefaultMaxUploadBytes int64 = 10 << 20

	uploadField  = "file"
	uploadOKText = "Data uploaded successfully."
)

// EmployeeController defines the business logic interface
// that the HTTP handlers will invoke.
type EmployeeController interface {
	Ingest(ctx context.Context, filename string, content io.Reader) (*models.IngestResult, error)
	ListEmployees(ctx context.Context) ([]models.EmployeeView, error)
}

// Options configure the optional parts of an EmployeeHandler.
type Options struct {
	MaxUploadBytes int64
	// Metrics instruments every request when set.
	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics when set.
	Gatherer prometheus.Gatherer
	// UploadLimiter throttles uploads across all clients when set.
	UploadLimiter *rate.Limiter
}

// EmployeeHandler serves the upload and listing endpoints over HTTP.
type EmployeeHandler struct {
	service        EmployeeController
	logger         *zap.Logger
	maxUploadBytes int64
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	uploadLimiter  *rate.Limiter
}

// NewEmployeeHandler constructs a new EmployeeHandler with the given service and logger.
func NewEmployeeHandler(service EmployeeController, logger *zap.Logger, opts Options) *EmployeeHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &EmployeeHandler{
		service:        service,
		logger:         logger.Named("http_handler"),
		maxUploadBytes: opts.MaxUploadBytes,
		metrics:        opts.Metrics,
		gatherer:       opts.Gatherer,
		uploadLimiter:  opts.UploadLimiter,
	}
}

// Routes builds the chi router serving every HTTP endpoint.
func (h *EmployeeHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
	})
	r.Get("/docs", serveDocs)
	r.Get("/openapi.yaml", serveOpenAPI)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.With(h.throttleUploads).Post("/upload-employees/", h.UploadEmployees)
	r.With(h.throttleUploads).Post("/upload-employees", h.UploadEmployees)
	r.Get("/employees/", h.ListEmployees)
	r.Get("/employees", h.ListEmployees)
	return r
}

type uploadResponse struct {
	Message          string `json:"message"`
	CompaniesCreated int    `json:"companies_created"`
	EmployeesCreated int    `json:"employees_created"`
}

type employeeResponse struct {
	EmployeeID   int64   `json:"employee_id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	PhoneNumber  string  `json:"phone_number"`
	Salary       float64 `json:"salary"`
	ManagerID    *int64  `json:"manager_id"`
	DepartmentID *int64  `json:"department_id"`
	CompanyName  *string `json:"company_name"`
}

// UploadEmployees ingests the multipart field "file" as a CSV or XLSX file.
func (h *EmployeeHandler) UploadEmployees(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: "File too large"})
			return
		}
		writeError(w, http.StatusBadRequest, errorResponse{Detail: "Invalid multipart form: " + err.Error()})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Detail: "No file uploaded in field \"file\""})
		return
	}
	defer file.Close()

	result, err := h.service.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		status, body := h.mapServiceError(err)
		writeError(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:          uploadOKText,
		CompaniesCreated: result.CompaniesCreated,
		EmployeesCreated: result.EmployeesCreated,
	})
}

// ListEmployees returns every stored employee with its company name.
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		status, body := h.mapServiceError(err)
		writeError(w, status, body)
		return
	}

	resp := make([]employeeResponse, 0, len(employees))
	for _, emp := range employees {
		resp = append(resp, viewToResponse(emp))
	}
	writeJSON(w, http.StatusOK, resp)
}

func viewToResponse(emp models.EmployeeView) employeeResponse {
	return employeeResponse{
		EmployeeID:   emp.EmployeeID,
		FirstName:    emp.FirstName,
		LastName:     emp.LastName,
		PhoneNumber:  emp.PhoneNumber,
		Salary:       emp.Salary.InexactFloat64(),
		ManagerID:    emp.ManagerID,
		DepartmentID: emp.DepartmentID,
		CompanyName:  emp.CompanyName,
	}
}

// requestLogger logs one line per request with its outcome.
func (h *EmployeeHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// throttleUploads rejects uploads beyond the configured rate with 429.
func (h *EmployeeHandler) throttleUploads(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.uploadLimiter != nil && !h.uploadLimiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, errorResponse{Detail: "Too many uploads, retry later"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
