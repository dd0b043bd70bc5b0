package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/deadline"
)

// fileDocument is the on-disk layout of the File store
type fileDocument struct {
	Deadlines   []deadline.Deadline   `json:"deadlines"`
	Suspensions []deadline.Suspension `json:"suspensions"`
	SavedAt     string                `json:"saved_at"`
}

// File is a Memory store mirrored to a JSON file after every mutation
type File struct {
	mem    *Memory
	path   string
	logger *zap.Logger
	writes sync.Mutex
}

// OpenFile loads the store from path. A missing file is an empty store;
// it is created on the first write.
func OpenFile(path string, logger *zap.Logger) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("file store needs a path")
	}
	f := &File{
		mem:    NewMemory(),
		path:   path,
		logger: logger,
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read store file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse store file: %w", err)
	}

	f.mem.restore(memorySnapshot{deadlines: doc.Deadlines, suspensions: doc.Suspensions})
	f.logger.Info("Deadline store loaded",
		zap.String("file", f.path),
		zap.Int("deadlines", len(doc.Deadlines)),
		zap.Int("suspensions", len(doc.Suspensions)))

	return nil
}

func (f *File) save() error {
	snap := f.mem.snapshot()
	doc := fileDocument{
		Deadlines:   snap.deadlines,
		Suspensions: snap.suspensions,
		SavedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if doc.Deadlines == nil {
		doc.Deadlines = []deadline.Deadline{}
	}
	if doc.Suspensions == nil {
		doc.Suspensions = []deadline.Suspension{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	f.logger.Debug("Deadline store saved",
		zap.String("file", f.path),
		zap.Int("deadlines", len(doc.Deadlines)))

	return nil
}

// mutate runs op and saves; on a failed save the in-memory state is rolled back
func (f *File) mutate(op func() error) error {
	f.writes.Lock()
	defer f.writes.Unlock()

	before := f.mem.snapshot()
	if err := op(); err != nil {
		return err
	}
	if err := f.save(); err != nil {
		f.mem.restore(before)
		return err
	}
	return nil
}

func (f *File) Create(ctx context.Context, dl deadline.Deadline) error {
	return f.mutate(func() error { return f.mem.Create(ctx, dl) })
}

func (f *File) Get(ctx context.Context, id string) (deadline.Deadline, error) {
	return f.mem.Get(ctx, id)
}

func (f *File) List(ctx context.Context, filter Filter) ([]deadline.Deadline, error) {
	return f.mem.List(ctx, filter)
}

func (f *File) Suspensions(ctx context.Context, deadlineID string) ([]deadline.Suspension, error) {
	return f.mem.Suspensions(ctx, deadlineID)
}

func (f *File) OpenSuspension(ctx context.Context, deadlineID string) (*deadline.Suspension, error) {
	return f.mem.OpenSuspension(ctx, deadlineID)
}

func (f *File) Transition(ctx context.Context, id string, fn TransitionFunc) (deadline.Deadline, error) {
	var out deadline.Deadline
	err := f.mutate(func() error {
		var err error
		out, err = f.mem.Transition(ctx, id, fn)
		return err
	})
	if err != nil {
		return deadline.Deadline{}, err
	}
	return out, nil
}

func (f *File) Close() error { return nil }
