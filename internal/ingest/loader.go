// Package ingest moves source CSV files between object storage and the
// typed dataset the metrics packages consume.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/daterange"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
	"github.com/ignite/connect-metrics/internal/pkg/logger"
	"github.com/ignite/connect-metrics/internal/pkg/promstats"
	"github.com/ignite/connect-metrics/internal/storage"
)

// Loader reads every CSV in the four source folders and builds a Dataset.
type Loader struct {
	store storage.Store
	clock clock.Clock
	stats *promstats.Metrics
}

func NewLoader(store storage.Store, clk clock.Clock, stats *promstats.Metrics) *Loader {
	return &Loader{store: store, clock: clk, stats: stats}
}

// Load fetches the folders concurrently and applies filter to calls and
// contacts. Validations are never date filtered. A folder that cannot be
// listed fails the load; a single unreadable file is skipped.
func (l *Loader) Load(ctx context.Context, filter daterange.Filter) (datanorm.Dataset, error) {
	raw := make(map[datanorm.FileType][]datanorm.Row, len(datanorm.FileTypes))
	results := make([][]datanorm.Row, len(datanorm.FileTypes))

	g, ctx := errgroup.WithContext(ctx)
	for i, ft := range datanorm.FileTypes {
		g.Go(func() error {
			rows, err := l.mergeFolder(ctx, ft.Folder())
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return datanorm.Dataset{}, err
	}
	for i, ft := range datanorm.FileTypes {
		raw[ft] = results[i]
	}

	loc := l.clock.Location()
	data := datanorm.Dataset{
		Calls:       datanorm.LoadKixie(raw[datanorm.FileKixie], loc),
		Validations: datanorm.LoadTelesign(raw[datanorm.FileTelesignWith], raw[datanorm.FileTelesignWithout]),
		Contacts:    datanorm.LoadPowerlist(raw[datanorm.FilePowerlist]),
	}

	if filter != "" && filter != daterange.All {
		now := l.clock.Now()
		calls := daterange.Calls(data.Calls, filter, now)
		contacts := daterange.Contacts(data.Contacts, filter, now)
		logger.Info("applied date filter",
			"filter", filter,
			"calls_before", len(data.Calls), "calls_after", len(calls),
			"contacts_before", len(data.Contacts), "contacts_after", len(contacts),
		)
		data.Calls, data.Contacts = calls, contacts
	}

	l.stats.AddRows(string(datanorm.FileKixie), len(data.Calls))
	l.stats.AddRows("telesign", len(data.Validations))
	l.stats.AddRows(string(datanorm.FilePowerlist), len(data.Contacts))
	return data, nil
}

// mergeFolder concatenates the rows of every CSV directly inside folder,
// in key order.
func (l *Loader) mergeFolder(ctx context.Context, folder string) ([]datanorm.Row, error) {
	objs, err := l.store.List(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}

	var merged []datanorm.Row
	for _, obj := range objs {
		if !storage.IsCSV(obj.Name) {
			continue
		}
		body, err := l.store.Get(ctx, obj.Key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("skipping unreadable file", "key", obj.Key, "error", err)
			l.stats.SkipFile(folder, "read_error")
			continue
		}
		_, rows, err := datanorm.ReadRows(bytes.NewReader(body))
		if err != nil {
			logger.Warn("skipping malformed file", "key", obj.Key, "error", err)
			l.stats.SkipFile(folder, "parse_error")
			continue
		}
		merged = append(merged, rows...)
	}
	logger.Debug("merged folder", "folder", folder, "files", len(objs), "rows", len(merged))
	return merged, nil
}

// FileStatus reports whether a source has data in storage.
type FileStatus struct {
	FileType  datanorm.FileType `json:"file_type"`
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	Files     int               `json:"files"`
	UpdatedAt *string           `json:"updated_at"`
	SizeKB    *string           `json:"size_kb"`
}

const (
	StatusLoaded  = "Loaded"
	StatusMissing = "Missing"
)

// Inventory lists each source with its CSV count, newest modification time
// and total size in KB (one decimal).
func (l *Loader) Inventory(ctx context.Context) ([]FileStatus, error) {
	out := make([]FileStatus, 0, len(datanorm.FileTypes))
	for _, ft := range datanorm.FileTypes {
		objs, err := l.store.List(ctx, ft.Folder())
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", ft.Folder(), err)
		}
		st := FileStatus{FileType: ft, Name: ft.Label(), Status: StatusMissing}
		var size int64
		var newest storage.Object
		for _, obj := range objs {
			if !storage.IsCSV(obj.Name) {
				continue
			}
			st.Files++
			size += obj.Size
			if obj.LastModified.After(newest.LastModified) {
				newest = obj
			}
		}
		if st.Files > 0 {
			st.Status = StatusLoaded
			updated := newest.LastModified.UTC().Format("2006-01-02T15:04:05Z07:00")
			kb := fmt.Sprintf("%.1f", float64(size)/1024)
			st.UpdatedAt, st.SizeKB = &updated, &kb
		}
		out = append(out, st)
	}
	return out, nil
}

// objectKey is where an upload of ft is stored.
func objectKey(ft datanorm.FileType) string {
	return path.Join(ft.Folder(), ft.FileName())
}
