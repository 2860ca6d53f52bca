package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"gsabyss/internal/cycle"
	"gsabyss/internal/fetch"
	"gsabyss/internal/hhw"
	"gsabyss/internal/logging"
)

// DatasetStore keeps the HHW dataset cached on disk with corrected schedule keys.
type DatasetStore struct {
	Path    string
	URL     string
	Fetcher fetch.Fetcher
	Retry   fetch.RetryConfig
	MaxAge  time.Duration // cache older than this is refreshed; zero never expires
	Anchor  time.Time     // first schedule key; zero means cycle.DefaultAnchor

	now func() time.Time
}

// Load returns the dataset, downloading it when the cache is missing, expired, or
// force is set. A failed download falls back to whatever cache exists.
func (s *DatasetStore) Load(ctx context.Context, force bool) (*hhw.Dataset, error) {
	cached, modTime, err := s.readCache()
	fresh := err == nil && (s.MaxAge <= 0 || s.clock().Sub(modTime) < s.MaxAge)
	if fresh && !force {
		logging.CacheDebug("Using cached dataset %s (%s old)", s.Path, s.clock().Sub(modTime).Round(time.Second))
		return hhw.Decode(cached)
	}

	doc, fetchErr := s.Refresh(ctx)
	if fetchErr == nil {
		return hhw.Decode(doc)
	}
	if err == nil {
		logging.CacheWarn("Dataset refresh failed, using cache from %s: %v", modTime.Format(cycle.Layout), fetchErr)
		return hhw.Decode(cached)
	}
	return nil, fetchErr
}

// Refresh downloads the dataset, corrects its schedule keys, and replaces the cache.
// The corrected document is returned.
func (s *DatasetStore) Refresh(ctx context.Context) ([]byte, error) {
	timer := logging.StartTimer(logging.CategoryFetch, "dataset refresh")
	defer timer.Stop()

	anchor := s.Anchor
	if anchor.IsZero() {
		anchor = cycle.DefaultAnchor
	}

	doc, err := fetch.FetchDecoded(ctx, s.Fetcher, s.URL, s.Retry, func(raw []byte) ([]byte, error) {
		return hhw.CorrectScheduleKeys(raw, anchor)
	})
	if err != nil {
		logging.FetchError("HHW dataset update failed: %v", err)
		return nil, fmt.Errorf("refresh dataset: %w", err)
	}
	if err := WriteFileAtomic(s.Path, doc); err != nil {
		return nil, err
	}
	logging.Fetch("HHW dataset updated (%d bytes)", len(doc))
	return doc, nil
}

// Read decodes the cached document without touching the network.
func (s *DatasetStore) Read() (*hhw.Dataset, error) {
	doc, _, err := s.readCache()
	if err != nil {
		return nil, err
	}
	return hhw.Decode(doc)
}

func (s *DatasetStore) readCache() ([]byte, time.Time, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, info.ModTime(), nil
}

func (s *DatasetStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
