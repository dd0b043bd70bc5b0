package holiday

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

// FileSource reads holidays from a local text file.
//
// Format: YYYY-MM-DD <scope> <court|-> <recurring|once> <name...>
// Example: 2025-12-20 court TJSP once Recesso forense
type FileSource struct {
	filePath string
	logger   *zap.Logger

	mu       sync.RWMutex
	loaded   bool
	holidays []Holiday
}

// NewFileSource creates a new FileSource. The file is read on first use or by Load.
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
	}
}

func (fs *FileSource) Name() string { return "file" }

// Load (re)reads the holiday file
func (fs *FileSource) Load() error {
	file, err := os.Open(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to open holiday file: %w", err)
	}
	defer file.Close()

	holidays, err := fs.parse(file)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	fs.holidays = holidays
	fs.loaded = true
	fs.mu.Unlock()

	fs.logger.Info("Holiday file loaded",
		zap.String("file", fs.filePath),
		zap.Int("holidays", len(holidays)))

	return nil
}

// Holidays returns the file's holidays within the range
func (fs *FileSource) Holidays(_ context.Context, from, to time.Time) ([]Holiday, error) {
	fs.mu.RLock()
	loaded := fs.loaded
	fs.mu.RUnlock()

	if !loaded {
		if err := fs.Load(); err != nil {
			return nil, err
		}
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return InRange(fs.holidays, from, to), nil
}

func (fs *FileSource) parse(r io.Reader) ([]Holiday, error) {
	var holidays []Holiday
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		h, err := ParseLine(line)
		if err != nil {
			fs.logger.Warn("Skipping holiday line",
				zap.Int("line", lineNo),
				zap.String("content", line),
				zap.Error(err))
			continue
		}
		holidays = append(holidays, h)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading holiday file: %w", err)
	}
	return holidays, nil
}

// ParseLine parses one holiday line of the file format
func ParseLine(line string) (Holiday, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Holiday{}, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidHoliday, len(fields))
	}

	date, err := time.Parse(dateutil.ISODate, fields[0])
	if err != nil {
		return Holiday{}, fmt.Errorf("%w: bad date %q", ErrInvalidHoliday, fields[0])
	}

	scope, err := ParseScope(fields[1])
	if err != nil {
		return Holiday{}, err
	}

	court := fields[2]
	if court == "-" {
		court = ""
	}

	var recurring bool
	switch strings.ToLower(fields[3]) {
	case "recurring", "yearly":
		recurring = true
	case "once":
		recurring = false
	default:
		return Holiday{}, fmt.Errorf("%w: recurrence must be recurring or once, got %q", ErrInvalidHoliday, fields[3])
	}

	h := Holiday{
		Name:      strings.Join(fields[4:], " "),
		Date:      dateutil.Civil(date),
		Scope:     scope,
		Court:     court,
		Recurring: recurring,
	}
	if h.Scope == ScopeNational {
		h.Court = ""
	}
	if err := h.Validate(); err != nil {
		return Holiday{}, err
	}
	return h, nil
}

// FormatLine renders h in the file format
func FormatLine(h Holiday) string {
	court := h.Court
	if court == "" {
		court = "-"
	}
	recurrence := "once"
	if h.Recurring {
		recurrence = "recurring"
	}
	return fmt.Sprintf("%s %s %s %s %s", dateutil.Format(h.Date), h.Scope, court, recurrence, h.Name)
}
