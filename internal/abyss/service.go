// Package abyss ties the dataset caches, fetchers, and renderers together behind the
// two chat commands: the quick view and the statistics picture. It is the only place
// that produces user-facing text.
package abyss

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gsabyss/internal/akasha"
	"gsabyss/internal/config"
	"gsabyss/internal/fetch"
	"gsabyss/internal/hhw"
	"gsabyss/internal/logging"
	"gsabyss/internal/query"
	"gsabyss/internal/quickview"
	"gsabyss/internal/render"
	"gsabyss/internal/statistic"
	"gsabyss/internal/store"
)

// User-facing replies.
const (
	MsgAkashaFetchFailed  = "Akasha 深渊数据获取失败！"
	MsgAkashaParseFailed  = "Akasha 深渊数据解析失败！"
	MsgDatasetUnavailable = "深渊数据获取失败，请稍后再试！"
	MsgRenderFailed       = "深渊速览图片生成失败！"
)

// NoDataMessage is the reply when a period has no data.
func NoDataMessage(title string) string {
	return fmt.Sprintf("没有找到「%s」的深渊数据哦！", title)
}

// Reply is the answer to one command: either text or an encoded image.
type Reply struct {
	Text   string
	Image  []byte
	Format string // render.FormatJPEG or render.FormatPNG when Image is set
}

// IsImage reports whether the reply carries a picture.
func (r Reply) IsImage() bool {
	return len(r.Image) > 0
}

// Service answers quick view and statistics requests.
type Service struct {
	cfg       *config.Config
	fetcher   fetch.Fetcher
	assetTry  fetch.RetryConfig
	dataTry   fetch.RetryConfig
	index     *store.Index
	assets    *store.AssetCache
	datasets  *store.DatasetStore
	quick     *quickview.Drawer
	stats     *statistic.Drawer
	parser    *query.Parser
	now       func() time.Time
	theme     *render.Theme
	skipIndex bool

	mu      sync.RWMutex
	dataset *hhw.Dataset
}

// Option customizes a Service.
type Option func(*Service)

// WithFetcher replaces the HTTP client.
func WithFetcher(f fetch.Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithClock replaces the wall clock used for relative periods and cache busting.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTheme uses t instead of loading fonts and icons from the cache directory.
// Init resources are not downloaded.
func WithTheme(t *render.Theme) Option {
	return func(s *Service) { s.theme = t }
}

// WithoutIndex disables the SQLite asset index.
func WithoutIndex() Option {
	return func(s *Service) { s.skipIndex = true }
}

// NewService builds a Service from cfg. Missing init resources are downloaded once;
// fonts fall back to the Go fonts when they cannot be.
func NewService(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Service{
		cfg: cfg,
		assetTry: fetch.RetryConfig{
			Attempts: cfg.Fetch.Retries,
			Delay:    cfg.Fetch.GetAssetDelay(),
		},
		dataTry: fetch.RetryConfig{
			Attempts: cfg.Fetch.Retries,
			Delay:    cfg.Fetch.GetDataDelay(),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.fetcher == nil {
		s.fetcher = fetch.NewClient(fetch.Options{
			Timeout: cfg.Fetch.GetTimeout(),
			Headers: map[string]string{
				"Referer":    cfg.Fetch.Referer,
				"User-Agent": cfg.Fetch.UserAgent,
			},
			InsecureSkipVerify: cfg.Fetch.InsecureSkipVerify,
			MaxBytes:           cfg.Fetch.MaxBytes,
		})
	}

	if !s.skipIndex {
		index, err := store.OpenIndex(cfg.AssetIndexPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open asset index: %w", err)
		}
		s.index = index
	}

	if s.theme == nil {
		paths := store.EnsureInitResources(ctx, s.fetcher, s.assetTry, cfg.Sources.ResourceURL, cfg.Dir)
		s.theme = render.LoadTheme(render.ThemeFiles{
			Heavy:   filepath.Join(cfg.Dir, cfg.Render.TitleFont),
			Oblique: filepath.Join(cfg.Dir, cfg.Render.TextFont),
			Star:    paths["star_icon.png"],
			Half:    paths["half_icon.png"],
		})
	}

	s.assets = store.NewAssetCache(cfg.Dir, s.fetcher, s.assetTry, s.index)
	s.assets.SetDownloadTimeout(time.Duration(max(s.assetTry.Attempts, 1)) * (cfg.Fetch.GetTimeout() + s.assetTry.Delay))
	s.datasets = &store.DatasetStore{
		Path:    cfg.DatasetCachePath(),
		URL:     cfg.Sources.DatasetURL,
		Fetcher: s.fetcher,
		Retry:   s.dataTry,
		MaxAge:  cfg.GetRefreshInterval(),
	}
	s.quick = quickview.NewDrawer(s.theme, s.assets)
	s.stats = statistic.NewDrawer(s.theme, s.assets, cfg.Sources.CharacterIconURL)
	s.parser = query.NewParser(s.now)

	logging.Boot("Service ready: dir=%s dataset=%s", cfg.Dir, cfg.Sources.DatasetURL)
	return s, nil
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Index returns the asset index, or nil when disabled.
func (s *Service) Index() *store.Index {
	return s.index
}

// Dataset returns the in-memory dataset, loading it from the cache or upstream on
// first use.
func (s *Service) Dataset(ctx context.Context) (*hhw.Dataset, error) {
	s.mu.RLock()
	ds := s.dataset
	s.mu.RUnlock()
	if ds != nil {
		return ds, nil
	}

	ds, err := s.datasets.Load(ctx, false)
	if err != nil {
		return nil, err
	}
	s.setDataset(ds)
	return ds, nil
}

// Refresh downloads the dataset again and swaps it in.
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()
	ds, err := s.datasets.Load(ctx, true)
	logging.Audit("", logging.CategorySchedule).DatasetEvent(logging.AuditDatasetRefresh, time.Since(start), err)
	if err != nil {
		return err
	}
	s.setDataset(ds)
	return nil
}

// Reload re-reads the cached dataset file without touching the network.
func (s *Service) Reload() error {
	start := time.Now()
	ds, err := s.datasets.Read()
	logging.Audit("", logging.CategoryCache).DatasetEvent(logging.AuditDatasetReload, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("reload dataset: %w", err)
	}
	s.setDataset(ds)
	logging.Cache("Dataset reloaded from %s", s.datasets.Path)
	return nil
}

func (s *Service) setDataset(ds *hhw.Dataset) {
	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()
}

// DatasetPath is the cached dataset file.
func (s *Service) DatasetPath() string {
	return s.datasets.Path
}

// ParseQuery parses command words with the service clock.
func (s *Service) ParseQuery(words string) query.Query {
	return s.parser.Parse(words)
}

// QuickView renders the quick view requested by words, e.g. "12-3 上期".
func (s *Service) QuickView(ctx context.Context, words string) Reply {
	q := s.ParseQuery(words)
	logging.QueryDebug("Parsed %q as %s", words, q)

	ds, err := s.Dataset(ctx)
	if err != nil {
		logging.Get(logging.CategoryCommand).Error("Dataset unavailable: %v", err)
		return Reply{Text: MsgDatasetUnavailable}
	}

	img, err := s.quick.Render(ctx, ds, q, s.cfg.Render.JPEGQuality)
	if err != nil {
		var nd *quickview.NoDataError
		if errors.As(err, &nd) {
			return Reply{Text: NoDataMessage(nd.Title())}
		}
		logging.Get(logging.CategoryRender).Error("Quick view %s failed: %v", q, err)
		return Reply{Text: MsgRenderFailed}
	}
	return Reply{Image: img, Format: render.FormatJPEG}
}

// StatisticURL returns the statistics script URL with its cache-busting parameter.
func (s *Service) StatisticURL() string {
	return s.cfg.Sources.AkashaURL + "?v=" + akasha.CacheBuster(s.now())
}

// Statistic fetches the Akasha statistics and renders them.
func (s *Service) Statistic(ctx context.Context) Reply {
	data, err := fetch.FetchDecoded(ctx, s.fetcher, s.StatisticURL(), s.dataTry, akasha.Decode)
	if err != nil {
		logging.FetchError("Akasha statistics unavailable: %v", err)
		if errors.Is(err, akasha.ErrMalformed) {
			return Reply{Text: MsgAkashaParseFailed}
		}
		return Reply{Text: MsgAkashaFetchFailed}
	}

	img, err := s.stats.Render(ctx, data)
	if err != nil {
		logging.Get(logging.CategoryRender).Error("Statistics picture failed: %v", err)
		return Reply{Text: MsgAkashaParseFailed}
	}
	return Reply{Image: img, Format: render.FormatPNG}
}

// Close releases the asset index.
func (s *Service) Close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}
