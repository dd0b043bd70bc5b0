package holiday

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Source supplies holidays relevant to the civil date range [from, to].
// Recurring holidays are always included.
type Source interface {
	Name() string
	Holidays(ctx context.Context, from, to time.Time) ([]Holiday, error)
}

// StaticSource serves a fixed list
type StaticSource struct {
	name     string
	holidays []Holiday
}

// NewStaticSource creates a StaticSource
func NewStaticSource(name string, holidays []Holiday) *StaticSource {
	return &StaticSource{name: name, holidays: holidays}
}

func (s *StaticSource) Name() string { return s.name }

// Holidays returns the fixed list filtered to the range
func (s *StaticSource) Holidays(_ context.Context, from, to time.Time) ([]Holiday, error) {
	return InRange(s.holidays, from, to), nil
}

// MultiSource unions several sources; one failing source fails the whole read
type MultiSource struct {
	sources []Source
}

// NewMultiSource creates a MultiSource
func NewMultiSource(sources ...Source) *MultiSource {
	return &MultiSource{sources: sources}
}

func (ms *MultiSource) Name() string { return "multi" }

// Holidays concatenates the holidays of every source
func (ms *MultiSource) Holidays(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	var out []Holiday
	for _, src := range ms.sources {
		hs, err := src.Holidays(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("holiday source %s: %w", src.Name(), err)
		}
		out = append(out, hs...)
	}
	return out, nil
}

// FallbackSource tries primary first and falls back on any error
type FallbackSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
	onError  func(source string, err error)
}

// NewFallbackSource creates a FallbackSource
func NewFallbackSource(primary, fallback Source, logger *zap.Logger) *FallbackSource {
	return &FallbackSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// OnError registers a hook called whenever the primary fails
func (fs *FallbackSource) OnError(fn func(source string, err error)) {
	fs.onError = fn
}

func (fs *FallbackSource) Name() string {
	return fs.primary.Name() + "|" + fs.fallback.Name()
}

// Holidays reads from the primary source, then the fallback
func (fs *FallbackSource) Holidays(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	hs, err := fs.primary.Holidays(ctx, from, to)
	if err == nil {
		return hs, nil
	}

	fs.logger.Warn("Primary holiday source failed, falling back",
		zap.String("primary", fs.primary.Name()),
		zap.String("fallback", fs.fallback.Name()),
		zap.Error(err))
	if fs.onError != nil {
		fs.onError(fs.primary.Name(), err)
	}

	hs, fallbackErr := fs.fallback.Holidays(ctx, from, to)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: primary=%w, fallback=%v", err, fallbackErr)
	}
	return hs, nil
}
