package program

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ErrLoadFailed is returned when the dataset source cannot be read or decoded.
var ErrLoadFailed = errors.New("program: dataset load failed")

// naive timestamps carry no offset and are interpreted in the conference zone.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// LoaderConfig describes where the dataset lives and how to read it.
type LoaderConfig struct {
	// Source is a file path or an http(s) URL.
	Source string
	// Timeout bounds a remote fetch. Zero disables the bound.
	Timeout  time.Duration
	Location *time.Location
	Client   *http.Client
}

// Loader reads the dataset once and memoizes the outcome, including a failure,
// for the lifetime of the process.
type Loader struct {
	cfg    LoaderConfig
	logger *slog.Logger

	once    sync.Once
	dataset *Dataset
	err     error
}

// NewLoader constructs a loader for the configured source.
func NewLoader(cfg LoaderConfig, logger *slog.Logger) *Loader {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Load returns the dataset. Concurrent first callers share one read; later
// callers receive the memoized dataset or error without touching the source.
// The context of the first caller governs the read.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: loader is nil", ErrLoadFailed)
	}
	l.once.Do(func() {
		start := time.Now()
		l.dataset, l.err = l.read(ctx)
		logger := l.logger.With("source", l.cfg.Source, "duration", time.Since(start))
		if l.err != nil {
			logger.ErrorContext(ctx, "dataset load failed", "error", l.err)
			return
		}
		logger.InfoContext(ctx, "dataset loaded",
			"sessions", len(l.dataset.Sessions),
			"speakers", len(l.dataset.Speakers),
			"rooms", len(l.dataset.Rooms),
			"fingerprint", l.dataset.Fingerprint,
		)
	})
	return l.dataset, l.err
}

func (l *Loader) read(ctx context.Context) (*Dataset, error) {
	source := strings.TrimSpace(l.cfg.Source)
	if source == "" {
		return nil, fmt.Errorf("%w: no source configured", ErrLoadFailed)
	}

	var (
		raw []byte
		err error
	)
	if isRemote(source) {
		raw, err = l.fetch(ctx, source)
	} else {
		raw, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
	}
	if err != nil {
		return nil, err
	}

	return Decode(raw, l.cfg.Location)
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrLoadFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrLoadFailed, err)
	}
	return raw, nil
}

// Decode parses a raw dataset document. Timestamps without an offset are read
// as wall clock time in loc.
func Decode(raw []byte, loc *time.Location) (*Dataset, error) {
	if loc == nil {
		loc = time.Local
	}

	var doc struct {
		Rooms    []Room       `json:"rooms"`
		Sessions []rawSession `json:"sessions"`
		Speakers []Speaker    `json:"speakers"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrLoadFailed, err)
	}

	dataset := &Dataset{
		Rooms:       doc.Rooms,
		Speakers:    doc.Speakers,
		Sessions:    make([]Session, 0, len(doc.Sessions)),
		Fingerprint: Fingerprint(raw),
	}
	for _, entry := range doc.Sessions {
		session := entry.Session
		var err error
		if session.StartsAt, err = ParseTimestamp(entry.StartsAt, loc); err != nil {
			return nil, fmt.Errorf("%w: session %s startsAt: %v", ErrLoadFailed, session.ID, err)
		}
		if session.EndsAt, err = ParseTimestamp(entry.EndsAt, loc); err != nil {
			return nil, fmt.Errorf("%w: session %s endsAt: %v", ErrLoadFailed, session.ID, err)
		}
		dataset.Sessions = append(dataset.Sessions, session)
	}

	return dataset, nil
}

// rawSession shadows the time fields so they can be parsed with a location.
type rawSession struct {
	Session
	StartsAt string `json:"startsAt"`
	EndsAt   string `json:"endsAt"`
}

// ParseTimestamp accepts RFC 3339 instants and offset-less wall clock times.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// Fingerprint is the hex encoded BLAKE2b-256 digest of a raw document.
func Fingerprint(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
