package abyss

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gsabyss/internal/config"
	"gsabyss/internal/cycle"
	"gsabyss/internal/fetch"
	"gsabyss/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	datasetURL = "https://data.example.test/abyss.json"
	akashaURL  = "https://akasha.example.test/abyss_total.js"
)

const akashaScript = `var static_abyss_total = {
  "schedule_id": 1,
  "modify_time": "2020-07-05 12:00",
  "schedule_version_desc": "1.6上半",
  "team_up_list": [{"ac": 10, "mr": "90", "uc": "10", "dc": "0", "ud": "1:0", "umr": "91.0", "dmr": "0", "tl": [2]}],
  "team_down_list": [],
  "abyss_total_view": {"avg_star": "30", "avg_battle_count": "14", "avg_maxstar_battle_count": "12",
    "pass_rate": "85", "maxstar_rate": "40", "maxstar_12_rate": "20", "person_war": 100, "person_pass": 85, "maxstar_person": 40},
  "last_rate": {"avg_star": "0.1", "pass_rate": "-1", "maxstar_rate": "0", "avg_battle_count": "0",
    "avg_maxstar_battle_count": "0", "maxstar_12_rate": "0"},
  "character_used_list": [{"avatar_id": 10000002, "value": 90, "name": "神里绫华", "en_name": "ayaka", "rarity": 5}]
};`

// fakeFetcher answers by URL prefix and fails everything else.
type fakeFetcher struct {
	mu     sync.Mutex
	routes map[string][]byte
	calls  map[string]int
	urls   []string
}

func newFakeFetcher(t *testing.T) *fakeFetcher {
	t.Helper()
	doc, err := os.ReadFile(filepath.Join("testdata", "abyss_hhw.json"))
	require.NoError(t, err)
	return &fakeFetcher{
		routes: map[string][]byte{
			datasetURL: doc,
			akashaURL:  []byte(akashaScript),
		},
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) set(prefix string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[prefix] = body
}

func (f *fakeFetcher) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[prefix]
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ fetch.RetryConfig) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	for prefix, body := range f.routes {
		if strings.HasPrefix(url, prefix) {
			f.calls[prefix]++
			if body == nil {
				return nil, fmt.Errorf("GET %s: status 503", url)
			}
			return body, nil
		}
	}
	return nil, fmt.Errorf("GET %s: status 404", url)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.Sources.DatasetURL = datasetURL
	cfg.Sources.AkashaURL = akashaURL
	cfg.Sources.CharacterIconURL = "https://icons.example.test/%s.jpg"
	cfg.Fetch.Retries = 2
	cfg.Fetch.AssetDelay = "1ms"
	cfg.Fetch.DataDelay = "1ms"
	return cfg
}

// July 5th 2020 lies in the first period the dataset knows about.
func julyClock() time.Time {
	return time.Date(2020, time.July, 5, 12, 0, 0, 0, cycle.Zone)
}

func newTestService(t *testing.T, f *fakeFetcher, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithFetcher(f),
		WithClock(julyClock),
		WithTheme(render.DefaultTheme()),
	}, opts...)
	s, err := NewService(context.Background(), testConfig(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestQuickView_Horizontal(t *testing.T) {
	f := newFakeFetcher(t)
	s := newTestService(t, f)

	reply := s.QuickView(context.Background(), "")
	require.True(t, reply.IsImage(), "reply text: %s", reply.Text)
	assert.Equal(t, render.FormatJPEG, reply.Format)

	img, err := jpeg.Decode(bytes.NewReader(reply.Image))
	require.NoError(t, err)
	assert.Equal(t, 2100, img.Bounds().Dx())

	// The cache holds the corrected schedule key.
	cached, err := os.ReadFile(s.DatasetPath())
	require.NoError(t, err)
	assert.Contains(t, string(cached), `"2020-07-01 04:00:00"`)
}

func TestQuickView_Vertical(t *testing.T) {
	s := newTestService(t, newFakeFetcher(t))

	reply := s.QuickView(context.Background(), "12-1")
	require.True(t, reply.IsImage(), "reply text: %s", reply.Text)
	img, err := jpeg.Decode(bytes.NewReader(reply.Image))
	require.NoError(t, err)
	assert.Equal(t, 700, img.Bounds().Dx())
}

func TestQuickView_NoData(t *testing.T) {
	s := newTestService(t, newFakeFetcher(t))

	tests := []struct {
		words string
		want  string
	}{
		{"上期", "没有找到「2020年6月下」的深渊数据哦！"},
		{"下期", "没有找到「2020年7月下」的深渊数据哦！"},
		{"12-3", "没有找到「2020年7月上」的深渊数据哦！"},
		{"11", "没有找到「2020年7月上」的深渊数据哦！"},
	}
	for _, tt := range tests {
		t.Run(tt.words, func(t *testing.T) {
			reply := s.QuickView(context.Background(), tt.words)
			assert.False(t, reply.IsImage())
			assert.Empty(t, reply.Image)
			assert.Equal(t, tt.want, reply.Text)
		})
	}
}

func TestQuickView_DatasetUnavailable(t *testing.T) {
	f := newFakeFetcher(t)
	f.set(datasetURL, nil)
	s := newTestService(t, f)

	reply := s.QuickView(context.Background(), "12")
	assert.Equal(t, MsgDatasetUnavailable, reply.Text)
	assert.Equal(t, 2, f.count(datasetURL), "bounded retries")
}

func TestStatistic(t *testing.T) {
	f := newFakeFetcher(t)
	s := newTestService(t, f)

	reply := s.Statistic(context.Background())
	require.True(t, reply.IsImage(), "reply text: %s", reply.Text)
	assert.Equal(t, render.FormatPNG, reply.Format)
	img, err := png.Decode(bytes.NewReader(reply.Image))
	require.NoError(t, err)
	assert.Equal(t, 700, img.Bounds().Dx())
	assert.Equal(t, 1220, img.Bounds().Dy())

	assert.Equal(t, akashaURL+"?v=1593921", s.StatisticURL())
	assert.Contains(t, f.urls, "https://icons.example.test/ayaka.jpg")
}

func TestStatistic_Failures(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		f := newFakeFetcher(t)
		f.set(akashaURL, nil)
		s := newTestService(t, f)
		assert.Equal(t, Reply{Text: MsgAkashaFetchFailed}, s.Statistic(context.Background()))
	})
	t.Run("parse", func(t *testing.T) {
		f := newFakeFetcher(t)
		f.set(akashaURL, []byte("var static_abyss_total = <html>;"))
		s := newTestService(t, f)
		assert.Equal(t, Reply{Text: MsgAkashaParseFailed}, s.Statistic(context.Background()))
		assert.Equal(t, 2, f.count(akashaURL), "malformed payloads are retried")
	})
}

func TestDispatch(t *testing.T) {
	s := newTestService(t, newFakeFetcher(t))
	ctx := context.Background()

	tests := []struct {
		line      string
		handled   bool
		wantImage bool
		wantText  string
	}{
		{"速览 12-1", true, true, ""},
		{"深渊速览12-1", true, true, ""},
		{"速览 上期", true, false, "没有找到「2020年6月下」的深渊数据哦！"},
		{"深渊统计", true, true, ""},
		{"  深渊统计  ", true, true, ""},
		{"深渊统计 上期", false, false, ""},
		{"你好", false, false, ""},
		{"", false, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			reply, ok := s.Dispatch(ctx, tt.line)
			assert.Equal(t, tt.handled, ok)
			assert.Equal(t, tt.wantImage, reply.IsImage())
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, reply.Text)
			}
		})
	}
}

func TestRefreshAndReload(t *testing.T) {
	f := newFakeFetcher(t)
	s := newTestService(t, f)
	ctx := context.Background()

	_, err := s.Dataset(ctx)
	require.NoError(t, err)
	_, err = s.Dataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(datasetURL), "dataset is kept in memory")

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 2, f.count(datasetURL))

	require.NoError(t, os.WriteFile(s.DatasetPath(), []byte(`{"Floor": {}, "Schedule": {}}`), 0644))
	require.NoError(t, s.Reload())
	ds, err := s.Dataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Floors())

	require.NoError(t, os.Remove(s.DatasetPath()))
	assert.Error(t, s.Reload())
}

func TestRunRefresher(t *testing.T) {
	f := newFakeFetcher(t)
	s := newTestService(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunRefresher(ctx, 10*time.Millisecond)
	}()

	assert.Eventually(t, func() bool { return f.count(datasetURL) >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestWatchDataset(t *testing.T) {
	f := newFakeFetcher(t)
	s := newTestService(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fw, err := s.WatchDataset(ctx)
	require.NoError(t, err)
	fw.SetDebounce(10 * time.Millisecond)
	defer fw.Stop()
	assert.True(t, fw.IsWatching())

	doc, err := os.ReadFile(filepath.Join("testdata", "abyss_hhw.json"))
	require.NoError(t, err)
	fixed := strings.Replace(string(doc), "2020-07-01 05:00:00", "2020-07-01 04:00:00", 1)
	require.NoError(t, os.WriteFile(s.DatasetPath(), []byte(fixed), 0644))

	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.dataset != nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 0, f.count(datasetURL), "reload does not touch the network")
}

func TestNewService_WithIndex(t *testing.T) {
	f := newFakeFetcher(t)
	cfg := testConfig(t)
	s, err := NewService(context.Background(), cfg, WithFetcher(f), WithClock(julyClock))
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.Index())
	_, err = os.Stat(cfg.AssetIndexPath())
	assert.NoError(t, err)

	// Init resources were attempted and the theme fell back to the Go fonts.
	assert.Contains(t, f.urls, cfg.Sources.ResourceURL+"star_icon.png")
	reply := s.QuickView(context.Background(), "12-1")
	assert.True(t, reply.IsImage(), "reply text: %s", reply.Text)
}

func TestNewService_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.JPEGQuality = 0
	_, err := NewService(context.Background(), cfg, WithoutIndex())
	assert.Error(t, err)
}

func TestNoDataMessage(t *testing.T) {
	assert.Equal(t, "没有找到「2023年2月上」的深渊数据哦！", NoDataMessage("2023年2月上"))
}
