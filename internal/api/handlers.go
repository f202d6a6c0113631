package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/ignite/connect-metrics/internal/daterange"
	"github.com/ignite/connect-metrics/internal/ingest"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
	"github.com/ignite/connect-metrics/internal/pkg/httputil"
	"github.com/ignite/connect-metrics/internal/service/dashboard"
)

// ViewService serves computed metrics views.
type ViewService interface {
	Get(ctx context.Context, view dashboard.View, filter daterange.Filter, p dashboard.Params) (dashboard.Result, error)
}

// UploadService validates and stores uploaded CSV files.
type UploadService interface {
	Upload(ctx context.Context, req ingest.UploadRequest) (ingest.UploadResult, error)
}

// FileLister reports which source files are present.
type FileLister interface {
	Inventory(ctx context.Context) ([]ingest.FileStatus, error)
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	views          ViewService
	uploads        UploadService
	files          FileLister
	clock          clock.Clock
	maxUploadBytes int64
}

// Deps are the collaborators of Handlers.
type Deps struct {
	Views          ViewService
	Uploads        UploadService
	Files          FileLister
	Clock          clock.Clock
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 50 << 20

func NewHandlers(d Deps) *Handlers {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUploadBytes
	}
	if d.Clock == nil {
		d.Clock = clock.System(time.UTC)
	}
	return &Handlers{
		views:          d.Views,
		uploads:        d.Uploads,
		files:          d.Files,
		clock:          d.Clock,
		maxUploadBytes: d.MaxUploadBytes,
	}
}

// StatusResponse shows how the server sees the current time.
type StatusResponse struct {
	SystemTime string `json:"system_time"`
	UTCTime    string `json:"utc_time"`
	LocalTime  string `json:"local_time"`
	Timezone   string `json:"timezone"`
	TZEnv      string `json:"tz_env"`
}

// GetStatus reports system, UTC and reporting-timezone time.
//
//	GET /api/status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	httputil.OK(w, StatusResponse{
		SystemTime: now.Format(time.RFC3339),
		UTCTime:    now.UTC().Format(time.RFC3339),
		LocalTime:  h.clock.Now().Format(time.RFC3339),
		Timezone:   h.clock.Location().String(),
		TZEnv:      os.Getenv("TZ"),
	})
}

// GetFiles lists each source with its Loaded/Missing status.
//
//	GET /api/files
func (h *Handlers) GetFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.Inventory(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"files": files})
}
