// Package store keeps the local cache: the drift-corrected dataset, downloaded icons,
// init resources (fonts, static icons), and the SQLite index of everything downloaded.
package store

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"gsabyss/internal/fetch"
	"gsabyss/internal/logging"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// IconRequest names one icon to make available locally.
type IconRequest struct {
	URL      string
	Category string
	Name     string
}

// DefaultDownloadTimeout bounds one shared icon download, retries included.
const DefaultDownloadTimeout = 2 * time.Minute

// AssetCache downloads icons once and serves them from disk afterwards.
type AssetCache struct {
	dir     string
	fetcher fetch.Fetcher
	retry   fetch.RetryConfig
	index   *Index // optional
	timeout time.Duration

	group singleflight.Group
}

// NewAssetCache creates a cache rooted at dir. index may be nil.
func NewAssetCache(dir string, fetcher fetch.Fetcher, retry fetch.RetryConfig, index *Index) *AssetCache {
	return &AssetCache{dir: dir, fetcher: fetcher, retry: retry, index: index, timeout: DefaultDownloadTimeout}
}

// SetDownloadTimeout changes the bound on one shared download. Non-positive values
// restore DefaultDownloadTimeout.
func (c *AssetCache) SetDownloadTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultDownloadTimeout
	}
	c.timeout = d
}

// Path returns where an icon is stored, whether or not it exists yet.
func (c *AssetCache) Path(category, name string) string {
	return filepath.Join(c.dir, category, name+".png")
}

// Icon makes the icon available and returns its path. Existing files are never
// downloaded again. Failures are logged and reported as ok=false so callers can
// draw a placeholder.
//
// Concurrent callers share one download, which runs detached from the caller that
// started it. Each caller stops waiting when its own ctx ends.
func (c *AssetCache) Icon(ctx context.Context, url, category, name string) (string, bool) {
	path := c.Path(category, name)
	if fileExists(path) {
		return path, true
	}

	ch := c.group.DoChan(path, func() (interface{}, error) {
		if fileExists(path) {
			return nil, nil
		}
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return nil, c.download(dctx, url, category, name, path)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			logging.Get(logging.CategoryCache).Error("File %s download failed: %v", filepath.Base(path), res.Err)
			return "", false
		}
		return path, true
	case <-ctx.Done():
		logging.CacheWarn("Stopped waiting for %s: %v", filepath.Base(path), ctx.Err())
		return "", false
	}
}

func (c *AssetCache) download(ctx context.Context, url, category, name, path string) error {
	logging.Cache("Downloading %s <- %s", filepath.Base(path), url)

	img, err := fetch.FetchDecoded(ctx, c.fetcher, url, c.retry, decodeRGBA)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := WriteFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}

	if c.index != nil {
		b := img.Bounds()
		asset := Asset{
			Path:     path,
			Category: category,
			Name:     name,
			URL:      url,
			Bytes:    int64(buf.Len()),
			Width:    b.Dx(),
			Height:   b.Dy(),
		}
		if err := c.index.Record(asset); err != nil {
			logging.CacheWarn("Asset index update failed: %v", err)
		}
	}
	return nil
}

// Prefetch downloads icons concurrently and returns the local path of every icon
// that is available, keyed by category and name. Individual failures are skipped.
func (c *AssetCache) Prefetch(ctx context.Context, reqs []IconRequest) map[IconRequest]string {
	paths := make([]string, len(reqs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i, r := range reqs {
		eg.Go(func() error {
			if p, ok := c.Icon(egCtx, r.URL, r.Category, r.Name); ok {
				paths[i] = p
			}
			return nil
		})
	}
	_ = eg.Wait()

	out := make(map[IconRequest]string, len(reqs))
	for i, r := range reqs {
		if paths[i] != "" {
			out[r] = paths[i]
		}
	}
	return out
}

// LoadImage reads a cached image as RGBA.
func LoadImage(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeRGBA(data)
}

func decodeRGBA(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
