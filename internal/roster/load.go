package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ChrisWangg/help-session-to-ics/internal/model"
)

// Loader reads the allocations document from a local path or an
// http(s) URL.
type Loader struct {
	fetcher *Fetcher
}

// NewLoader returns a Loader whose remote fetches are cached in cacheDir.
func NewLoader(cacheDir string) *Loader {
	return &Loader{fetcher: NewFetcher(cacheDir)}
}

// Load reads and decodes the roster at source.
func (l *Loader) Load(ctx context.Context, source string) ([]model.Course, error) {
	if source == "" {
		return nil, errors.New("allocations source is empty")
	}

	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, _, err = l.fetcher.Fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read allocations: %w", err)
	}

	return Decode(data)
}

// Decode parses an allocations JSON document.
func Decode(data []byte) ([]model.Course, error) {
	var courses []model.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("parse allocations: %w", err)
	}
	return courses, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
