package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gsabyss/internal/fetch"
	"gsabyss/internal/logging"
)

// InitResources are the static files the renderers use, fetched once from the
// resource CDN.
var InitResources = []string{
	"HYWH-85W.ttf",
	"SmileySans-Oblique.ttf",
	"star_icon.png",
	"half_icon.png",
}

// InitResource ensures dir/name exists, downloading it from baseURL+name if needed.
func InitResource(ctx context.Context, f fetch.Fetcher, retry fetch.RetryConfig, baseURL, dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if fileExists(path) {
		return path, nil
	}

	url := strings.TrimSuffix(baseURL, "/") + "/" + name
	logging.Boot("Downloading init resource %s", name)
	data, err := f.Fetch(ctx, url, retry)
	if err != nil {
		return "", fmt.Errorf("init resource %s: %w", name, err)
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// EnsureInitResources downloads every missing init resource. Failures are logged;
// renderers fall back to built-in fonts and drawn markers.
func EnsureInitResources(ctx context.Context, f fetch.Fetcher, retry fetch.RetryConfig, baseURL, dir string) map[string]string {
	paths := make(map[string]string, len(InitResources))
	for _, name := range InitResources {
		p, err := InitResource(ctx, f, retry, baseURL, dir, name)
		if err != nil {
			logging.BootWarn("Init resource unavailable: %v", err)
			continue
		}
		paths[name] = p
	}
	return paths
}
