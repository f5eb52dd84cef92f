package handlers

import (
	"net/http"
	"strings"

	"domainacq/internal/registrar"

	"github.com/labstack/echo/v4"
)

// Registrar pass-through. An unsuccessful registrar result is answered with
// 400 and the result itself; transport failures are 500.

func (h *Handler) ListDomains(c echo.Context) error {
	domains, err := h.registrar.ListDomains(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, domains)
}

func (h *Handler) SearchDomain(c echo.Context) error {
	domain := strings.TrimSpace(c.QueryParam("domain"))
	if domain == "" {
		return badRequest(c, "Domain parameter required")
	}
	res, err := h.registrar.SearchDomain(c.Request().Context(), domain)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RegisterDomain(c echo.Context) error {
	var req struct {
		Domain   string `json:"domain"`
		Duration int    `json:"duration"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Domain) == "" {
		return badRequest(c, "Domain required")
	}
	if req.Duration <= 0 {
		req.Duration = 1
	}
	res, err := h.registrar.RegisterDomain(c.Request().Context(), strings.TrimSpace(req.Domain), req.Duration)
	return h.registrarResult(c, res, err)
}

func (h *Handler) SetEmailForward(c echo.Context) error {
	var req struct {
		Forwards []registrar.EmailForward `json:"forwards"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Forwards == nil {
		return badRequest(c, "Forwards array required")
	}
	res, err := h.registrar.SetEmailForward(c.Request().Context(), c.Param("domain"), req.Forwards)
	return h.registrarResult(c, res, err)
}

func (h *Handler) SetForwardURL(c echo.Context) error {
	var req struct {
		ForwardURL  string `json:"forwardUrl"`
		IsPermanent *bool  `json:"isPermanent"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.ForwardURL) == "" {
		return badRequest(c, "forwardUrl required")
	}
	permanent := true
	if req.IsPermanent != nil {
		permanent = *req.IsPermanent
	}
	res, err := h.registrar.SetURLForwarding(c.Request().Context(), c.Param("domain"), req.ForwardURL, permanent)
	return h.registrarResult(c, res, err)
}

func (h *Handler) EmailForwardAll(c echo.Context) error {
	var req struct {
		ForwardTo string `json:"forwardTo"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.ForwardTo) == "" {
		return badRequest(c, "forwardTo email address required")
	}
	res, err := h.batch.ForwardAll(c.Request().Context(), req.ForwardTo)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) registrarResult(c echo.Context, res registrar.Result, err error) error {
	if err != nil {
		h.logger.Error("registrar call failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !res.Success {
		return c.JSON(http.StatusBadRequest, res)
	}
	return c.JSON(http.StatusOK, res)
}
