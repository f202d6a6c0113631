package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/connect-metrics/internal/daterange"
	"github.com/ignite/connect-metrics/internal/pkg/httputil"
	"github.com/ignite/connect-metrics/internal/service/dashboard"
)

// GET /api/dashboard?filter=
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, dashboard.ViewDashboard, dashboard.Params{})
}

// GET /api/trends?filter=
func (h *Handlers) GetTrends(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, dashboard.ViewTrends, dashboard.Params{})
}

// GET /api/validation?filter=
func (h *Handlers) GetValidation(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, dashboard.ViewValidation, dashboard.Params{})
}

// GET /api/attempts?list=&filter=
func (h *Handlers) GetAttempts(w http.ResponseWriter, r *http.Request) {
	list := strings.TrimSpace(r.URL.Query().Get("list"))
	h.serveView(w, r, dashboard.ViewAttempts, dashboard.Params{ListName: list})
}

// GET /api/cooldown
func (h *Handlers) GetCooldown(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, dashboard.ViewCooldown, dashboard.Params{})
}

func (h *Handlers) serveView(w http.ResponseWriter, r *http.Request, view dashboard.View, p dashboard.Params) {
	filter, err := daterange.Parse(r.URL.Query().Get("filter"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	res, err := h.views.Get(r.Context(), view, filter, p)
	if errors.Is(err, dashboard.ErrUnknownView) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, res)
}
