package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"domainacq/internal/registrar"
	"domainacq/internal/services"
	"domainacq/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	registrar registrar.Registrar
	acq       *services.AcquisitionService
	batch     *services.BatchService
	importer  *services.ImportService
	logger    *slog.Logger
}

func New(reg registrar.Registrar, acq *services.AcquisitionService, batch *services.BatchService, importer *services.ImportService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registrar: reg,
		acq:       acq,
		batch:     batch,
		importer:  importer,
		logger:    logger,
	}
}

func RegisterRoutes(e *echo.Echo, api *echo.Group, h *Handler) {
	e.GET("/", h.Dashboard)
	e.GET("/records", h.Records)
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api.GET("/domains", h.ListDomains)
	api.GET("/domains/search", h.SearchDomain)
	api.POST("/domains/register", h.RegisterDomain)
	api.POST("/domains/email-forward-all", h.EmailForwardAll)
	api.POST("/domains/:domain/email-forward", h.SetEmailForward)
	api.POST("/domains/:domain/forward-url", h.SetForwardURL)

	api.GET("/imported-domains", h.ListImported)
	api.POST("/imported-domains", h.CreateImported)
	api.DELETE("/imported-domains", h.DeleteAllImported)
	api.GET("/imported-domains/stats", h.Stats)
	api.POST("/imported-domains/preview", h.PreviewCSV)
	api.POST("/imported-domains/import", h.ImportCSV)
	api.POST("/imported-domains/search", h.StartBatchSearch)
	api.GET("/imported-domains/search", h.BatchSearchState)
	api.GET("/imported-domains/:id", h.GetImported)
	api.PATCH("/imported-domains/:id", h.UpdateImported)
	api.DELETE("/imported-domains/:id", h.DeleteImported)
	api.POST("/imported-domains/:id/search", h.SearchImported)
	api.POST("/imported-domains/:id/approve", h.ApproveImported)
	api.POST("/imported-domains/:id/retry", h.RetryImported)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps service and store errors onto HTTP status codes.
func (h *Handler) writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrBusy),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	default:
		h.logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
