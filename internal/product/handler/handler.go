// Package handler provides HTTP handlers for product-related operations.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/abgdnv/products-api/internal/platform/web"
	perrors "github.com/abgdnv/products-api/internal/product/errors"
	"github.com/abgdnv/products-api/internal/product/service"
	"github.com/go-chi/chi/v5"
)

const (
	maxBodyBytes     = 1 << 20
	readinessTimeout = 2 * time.Second

	msgInvalidBody = "Invalid request body."
	msgWelcome     = "Welcome to the Simple Products REST API."
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	service service.ProductService
	pinger  Pinger
	logger  *slog.Logger
	// exposeDetail adds the underlying error to 500 responses outside production.
	exposeDetail bool
}

// NewHandler creates a new instance of Handler with the provided service.
func NewHandler(service service.ProductService, pinger Pinger, exposeDetail bool, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		pinger:       pinger,
		logger:       logger.With("component", "rest"),
		exposeDetail: exposeDetail,
	}
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Welcome)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.Readiness)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	input, err := decodeInput(w, r)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, msgInvalidBody)
		return
	}
	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Could not create product.")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// List retrieves all products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Could not retrieve products.")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Get retrieves a product by its ID.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	rawID := chi.URLParam(r, "id")
	found, err := h.service.Get(r.Context(), rawID)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Error retrieving product with id %s.", idLabel(rawID)))
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Update applies a partial update to a product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	rawID := chi.URLParam(r, "id")
	if _, err := service.ParseID(rawID); err != nil {
		h.respondServiceError(w, r, mLogger, err, "")
		return
	}
	input, err := decodeInput(w, r)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, msgInvalidBody)
		return
	}
	updated, err := h.service.Update(r.Context(), rawID, input)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Error updating product with id %s.", idLabel(rawID)))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a product by its ID.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	rawID := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), rawID); err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Could not delete product with id %s.", idLabel(rawID)))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", rawID)
	w.WriteHeader(http.StatusNoContent)
}

// Welcome answers the root path.
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, map[string]string{"message": msgWelcome})
}

// HealthCheck is a simple liveness endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Readiness reports 503 while the store cannot be reached.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := h.pinger.Ping(ctx); err != nil {
		mLogger := h.loggerWithReqID(r)
		mLogger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Database unavailable.")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// respondServiceError maps service errors to status codes.
// internalMsg is the client message for storage and other unexpected failures.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, internalMsg string) {
	var validationErr *perrors.ValidationError
	var notFoundErr *perrors.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		logger.WarnContext(r.Context(), "Validation failed", "error", validationErr.Message)
		web.RespondError(w, logger, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &notFoundErr):
		logger.WarnContext(r.Context(), "Product not found", "ID", notFoundErr.ID)
		web.RespondError(w, logger, http.StatusNotFound, notFoundErr.Error())
	default:
		logger.ErrorContext(r.Context(), internalMsg, "error", err)
		var detail string
		if h.exposeDetail {
			detail = err.Error()
		}
		web.RespondErrorDetail(w, logger, http.StatusInternalServerError, internalMsg, detail)
	}
}

// decodeInput reads a JSON or url-encoded body. An empty body decodes to an empty input.
func decodeInput(w http.ResponseWriter, r *http.Request) (service.ProductInput, error) {
	var input service.ProductInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		var err error
		if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
			return input, fmt.Errorf("invalid content type %q: %w", ct, err)
		}
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return input, fmt.Errorf("failed to parse form: %w", err)
		}
		fields := map[string]*service.Field{
			"name":        &input.Name,
			"description": &input.Description,
			"price":       &input.Price,
			"quantity":    &input.Quantity,
		}
		for key, field := range fields {
			if _, ok := r.PostForm[key]; ok {
				*field = service.StringField(r.PostForm.Get(key))
			}
		}
		return input, nil
	case "application/json":
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&input); err != nil {
			if errors.Is(err, io.EOF) {
				return input, nil
			}
			return input, fmt.Errorf("failed to decode JSON: %w", err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return input, errors.New("request body must contain a single JSON object")
		}
		return input, nil
	default:
		return input, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

// idLabel renders a path id the way it appears in messages.
func idLabel(rawID string) string {
	if id, err := service.ParseID(rawID); err == nil {
		return strconv.FormatInt(id, 10)
	}
	return rawID
}

func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return web.RequestLogger(r.Context(), h.logger)
}
