package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"domainacq/internal/services"
	"domainacq/internal/web"

	"github.com/labstack/echo/v4"
)

const previewRows = 5

func (h *Handler) ListImported(c echo.Context) error {
	recs, err := h.acq.List(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *Handler) GetImported(c echo.Context) error {
	rec, err := h.acq.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.acq.Stats(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// CreateImported accepts either a single record or an array of records.
func (h *Handler) CreateImported(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return badRequest(c, "unreadable body")
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return badRequest(c, "request body required")
	}

	ctx := c.Request().Context()
	if body[0] == '[' {
		var inputs []services.CreateInput
		if err := json.Unmarshal(body, &inputs); err != nil {
			return badRequest(c, "invalid JSON array")
		}
		n, err := h.importer.CreateMany(ctx, inputs)
		if err != nil {
			return h.writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "count": n})
	}

	var in services.CreateInput
	if err := json.Unmarshal(body, &in); err != nil {
		return badRequest(c, "invalid JSON object")
	}
	rec, err := h.importer.Create(ctx, in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) PreviewCSV(c echo.Context) error {
	table, err := h.uploadedTable(c)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, services.PreviewTable(table, previewRows))
}

func (h *Handler) ImportCSV(c echo.Context) error {
	table, err := h.uploadedTable(c)
	if err != nil {
		return h.writeError(c, err)
	}
	column, err := services.ResolveColumn(table.Headers, c.FormValue("column"))
	if err != nil {
		return h.writeError(c, err)
	}
	summary, err := h.importer.Import(c.Request().Context(), table, column, c.FormValue("emailForwardTo"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) uploadedTable(c echo.Context) (*services.Table, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, &services.ValidationError{Field: "file", Message: "a CSV file is required"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return services.ParseCSV(f)
}

func (h *Handler) UpdateImported(c echo.Context) error {
	var in services.UpdateInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	rec, err := h.acq.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteImported(c echo.Context) error {
	if err := h.acq.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteAllImported(c echo.Context) error {
	n, err := h.acq.DeleteAll(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "count": n})
}

func (h *Handler) SearchImported(c echo.Context) error {
	rec, err := h.acq.Search(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

type forwardRequest struct {
	EmailForwardTo string `json:"emailForwardTo"`
}

// ApproveImported answers 200 with the record even when a registrar step
// failed; the record then carries status error and the message.
func (h *Handler) ApproveImported(c echo.Context) error {
	var req forwardRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	rec, err := h.acq.Approve(c.Request().Context(), c.Param("id"), req.EmailForwardTo)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) RetryImported(c echo.Context) error {
	var req forwardRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	rec, err := h.acq.Retry(c.Request().Context(), c.Param("id"), req.EmailForwardTo)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) StartBatchSearch(c echo.Context) error {
	if err := h.batch.StartSearch(); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, h.batch.Run())
}

func (h *Handler) BatchSearchState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.batch.Run())
}

func (h *Handler) Dashboard(c echo.Context) error {
	recs, err := h.acq.List(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Render(http.StatusOK, "dashboard.html", web.NewDashboardView(recs, h.batch.Run()))
}

func (h *Handler) Records(c echo.Context) error {
	recs, err := h.acq.List(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Render(http.StatusOK, "records.html", web.RecordsView{Records: recs})
}
