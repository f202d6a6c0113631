package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ignite/connect-metrics/internal/config"
	"github.com/ignite/connect-metrics/internal/pkg/logger"
)

// ErrNotFound is returned by Get for a key that does not exist.
var ErrNotFound = errors.New("object not found")

// Object describes one stored file.
type Object struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the object storage holding the source CSV folders. Keys use
// forward slashes ("kixie_call_history/export.csv").
type Store interface {
	// List returns the objects directly inside folder, sorted by key. A
	// folder that does not exist lists as empty.
	List(ctx context.Context, folder string) ([]Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Ping(ctx context.Context) error
	Name() string
}

// New builds the store selected by cfg.Type. With LocalFallback set, an
// "aws" store is wrapped so that empty bucket folders are read from
// LocalPath instead.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "aws":
		s3Store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing S3 storage: %w", err)
		}
		if !cfg.LocalFallback {
			return s3Store, nil
		}
		local, err := NewLocalStore(cfg.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("initializing local fallback: %w", err)
		}
		return NewFallback(s3Store, local), nil
	case "local", "":
		return NewLocalStore(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// LocalStore keeps objects as files under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) List(ctx context.Context, folder string) ([]Object, error) {
	dir, err := s.resolve(folder)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}

	var out []Object
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Object{
			Key:          path.Join(strings.Trim(folder, "/"), e.Name()),
			Name:         e.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes through a temp file and rename so readers never see a
// partially written CSV.
func (s *LocalStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("create folder for %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.root)
	}
	return nil
}

// Fallback reads from Primary and consults Secondary when a folder has no
// CSV objects in Primary or Primary fails. Writes go to Primary only.
type Fallback struct {
	Primary   Store
	Secondary Store
}

func NewFallback(primary, secondary Store) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary}
}

func (f *Fallback) Name() string {
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

func (f *Fallback) List(ctx context.Context, folder string) ([]Object, error) {
	objs, err := f.Primary.List(ctx, folder)
	if err != nil {
		logger.Warn("[storage] primary list failed, using fallback",
			"store", f.Primary.Name(), "folder", folder, "error", err)
		return f.Secondary.List(ctx, folder)
	}
	if !hasCSV(objs) {
		return f.Secondary.List(ctx, folder)
	}
	return objs, nil
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := f.Primary.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotFound) {
		logger.Warn("[storage] primary get failed, using fallback",
			"store", f.Primary.Name(), "key", key, "error", err)
	}
	return f.Secondary.Get(ctx, key)
}

func (f *Fallback) Put(ctx context.Context, key string, body []byte, contentType string) error {
	return f.Primary.Put(ctx, key, body, contentType)
}

func (f *Fallback) Ping(ctx context.Context) error {
	return f.Primary.Ping(ctx)
}

// IsCSV reports whether an object name has a .csv extension.
func IsCSV(name string) bool {
	return strings.EqualFold(path.Ext(name), ".csv")
}

func hasCSV(objs []Object) bool {
	for _, o := range objs {
		if IsCSV(o.Name) {
			return true
		}
	}
	return false
}
