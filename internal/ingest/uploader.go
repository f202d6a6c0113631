package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
	"github.com/ignite/connect-metrics/internal/pkg/logger"
	"github.com/ignite/connect-metrics/internal/pkg/promstats"
	"github.com/ignite/connect-metrics/internal/storage"
)

// ErrUndetectedFileType is returned when no file type was given and none
// could be inferred from the file name or header.
var ErrUndetectedFileType = errors.New("could not determine file type")

// Invalidator drops cached metrics after new data lands.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Uploader validates an uploaded CSV and stores it in its source folder.
type Uploader struct {
	store       storage.Store
	invalidator Invalidator
	classifier  *datanorm.Classifier
	clock       clock.Clock
	stats       *promstats.Metrics
}

func NewUploader(store storage.Store, inv Invalidator, clk clock.Clock, stats *promstats.Metrics) *Uploader {
	return &Uploader{
		store:       store,
		invalidator: inv,
		classifier:  datanorm.NewClassifier(),
		clock:       clk,
		stats:       stats,
	}
}

// UploadRequest carries one uploaded file. FileType may be a canonical id,
// a display label or empty.
type UploadRequest struct {
	FileType string
	Filename string
	Body     []byte
}

type UploadResult struct {
	ID          string            `json:"upload_id"`
	FileType    datanorm.FileType `json:"file_type"`
	Label       string            `json:"label"`
	Key         string            `json:"file_path"`
	Columns     []string          `json:"columns"`
	Rows        int               `json:"rows"`
	Ambiguities []string          `json:"ambiguities,omitempty"`
	UploadedAt  time.Time         `json:"uploaded_at"`
}

// Upload validates req and, if it passes, overwrites the canonical file for
// its source. Validation failures are returned as the datanorm error types
// so callers can report missing columns.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	ft, err := u.resolveType(req)
	if err != nil {
		u.stats.Upload("unknown", "rejected")
		return UploadResult{}, err
	}

	res := datanorm.Normalize(string(req.Body), ft)
	if !res.Success {
		u.stats.Upload(string(ft), "rejected")
		logger.Warn("upload rejected", "file_type", ft, "filename", req.Filename, "error", res.Err)
		return UploadResult{}, res.Err
	}

	key := objectKey(ft)
	if err := u.store.Put(ctx, key, req.Body, "text/csv"); err != nil {
		return UploadResult{}, fmt.Errorf("store %s: %w", key, err)
	}

	if u.invalidator != nil {
		if err := u.invalidator.Invalidate(ctx); err != nil {
			logger.Warn("cache invalidation failed", "error", err)
		}
	}

	out := UploadResult{
		ID:         uuid.NewString(),
		FileType:   ft,
		Label:      ft.Label(),
		Key:        key,
		Columns:    res.Columns,
		Rows:       len(res.Data),
		UploadedAt: u.clock.Now(),
	}
	for _, a := range res.Ambiguities {
		out.Ambiguities = append(out.Ambiguities, a.String())
	}
	u.stats.Upload(string(ft), "accepted")
	logger.Info("upload stored", "upload_id", out.ID, "file_type", ft, "key", key, "rows", out.Rows)
	return out, nil
}

func (u *Uploader) resolveType(req UploadRequest) (datanorm.FileType, error) {
	if req.FileType != "" {
		return datanorm.ParseFileType(req.FileType)
	}
	header, _, _ := datanorm.ReadRows(bytes.NewReader(req.Body))
	if ft, ok := u.classifier.Classify(req.Filename, header); ok {
		return ft, nil
	}
	return "", ErrUndetectedFileType
}
