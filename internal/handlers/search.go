package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	authmw "github.com/quickcart/quickcart-api/internal/middleware/auth"
	"github.com/quickcart/quickcart-api/internal/service"
	"github.com/quickcart/quickcart-api/internal/service/search"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
	Svc   *service.OrderService
}

func (h *SearchHandler) Search(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.RequireAdmin(c.Request().Context(), callerID); err != nil {
		return respondError(c, err)
	}

	q := c.QueryParam("q")
	if q == "" {
		return envelopeError(c, http.StatusBadRequest, "query required")
	}
	if h.ES == nil {
		return envelopeError(c, http.StatusServiceUnavailable, "search unavailable")
	}

	offset, limit := pageParams(c)
	total, orders, err := search.Search(c.Request().Context(), h.ES, h.Index, q, offset, limit)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, "order search", map[string]interface{}{"total": total, "orders": orders})
}
