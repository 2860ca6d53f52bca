package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gsabyss/internal/abyss"
	"gsabyss/internal/config"
	"gsabyss/internal/cycle"
	"gsabyss/internal/fetch"
	"gsabyss/internal/logging"
	"gsabyss/internal/render"
	"gsabyss/internal/store"
)

const testDatasetURL = "https://data.example.test/abyss.json"

// datasetFetcher serves the abyss test dataset and fails everything else.
type datasetFetcher struct {
	doc []byte
}

func (f datasetFetcher) Fetch(_ context.Context, url string, _ fetch.RetryConfig) ([]byte, error) {
	if url == testDatasetURL {
		return f.doc, nil
	}
	return nil, fmt.Errorf("GET %s: status 404", url)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.DefaultConfig()
	c.Dir = t.TempDir()
	c.Sources.DatasetURL = testDatasetURL
	c.Fetch.AssetDelay = "1ms"
	c.Fetch.DataDelay = "1ms"
	return c
}

func testOptions(t *testing.T) []abyss.Option {
	t.Helper()
	doc, err := os.ReadFile(filepath.Join("..", "..", "internal", "abyss", "testdata", "abyss_hhw.json"))
	require.NoError(t, err)
	return []abyss.Option{
		abyss.WithFetcher(datasetFetcher{doc: doc}),
		abyss.WithClock(func() time.Time { return time.Date(2020, time.July, 5, 12, 0, 0, 0, cycle.Zone) }),
		abyss.WithTheme(render.DefaultTheme()),
		abyss.WithoutIndex(),
	}
}

func newTestService(t *testing.T) *abyss.Service {
	t.Helper()
	svc, err := abyss.NewService(context.Background(), testConfig(t), testOptions(t)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestJoinArgs(t *testing.T) {
	got := joinArgs([]string{"12-3", "上期"})
	if got != "12-3 上期" {
		t.Fatalf("expected '12-3 上期', got '%s'", got)
	}
}

func TestWriteReply_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReply(&buf, abyss.Reply{Text: abyss.MsgAkashaFetchFailed}, "", t.TempDir()))
	assert.Equal(t, abyss.MsgAkashaFetchFailed+"\n", buf.String())
}

func TestWriteReply_Image(t *testing.T) {
	dir := t.TempDir()
	reply := abyss.Reply{Image: []byte{1, 2, 3}, Format: render.FormatPNG}

	var buf bytes.Buffer
	path := filepath.Join(dir, "nested", "out.png")
	require.NoError(t, writeReply(&buf, reply, path, dir))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, reply.Image, data)
	assert.Contains(t, buf.String(), "(3 bytes)")

	buf.Reset()
	require.NoError(t, writeReply(&buf, reply, "", dir))
	matches, err := filepath.Glob(filepath.Join(dir, "abyss-*.png"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestReplyFileName(t *testing.T) {
	assert.True(t, strings.HasSuffix(replyFileName(abyss.Reply{Format: render.FormatJPEG}), ".jpg"))
	assert.True(t, strings.HasSuffix(replyFileName(abyss.Reply{Format: render.FormatPNG}), ".png"))
	assert.NotEqual(t, replyFileName(abyss.Reply{}), replyFileName(abyss.Reply{}))
}

func TestRenderSyntax(t *testing.T) {
	out, err := renderSyntax("notty")
	require.NoError(t, err)
	for _, want := range []string{"深渊速览", "深渊统计", "上期", "12-3"} {
		assert.Contains(t, out, want)
	}
}

func TestPrintAssets(t *testing.T) {
	var buf bytes.Buffer
	printAssets(&buf, nil)
	assert.Contains(t, buf.String(), "No assets downloaded yet.")

	buf.Reset()
	printAssets(&buf, []store.Asset{
		{Category: "monster", Name: "丘丘人", Width: 128, Height: 128, Bytes: 2048, FetchedAt: time.Date(2023, 2, 1, 4, 0, 0, 0, time.UTC)},
	})
	out := buf.String()
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "丘丘人")
	assert.Contains(t, out, "128x128")
	assert.Contains(t, out, "1 asset(s)")
}

func TestRunStats_ExtraArgsAreSilent(t *testing.T) {
	logger = zap.NewNop()

	output := captureOutput(t, func() {
		if err := runStats(&cobra.Command{}, []string{"上期"}); err != nil {
			t.Fatalf("runStats returned error: %v", err)
		}
	})
	assert.Empty(t, output)
}

func TestRunQuickView(t *testing.T) {
	cfg = testConfig(t)
	serviceOptions = testOptions(t)
	outPath = ""
	t.Cleanup(func() {
		cfg = nil
		serviceOptions = nil
	})

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runQuickView(cmd, []string{"上期"}))
	assert.Equal(t, "没有找到「2020年6月下」的深渊数据哦！\n", buf.String())

	buf.Reset()
	outPath = filepath.Join(t.TempDir(), "12-1.jpg")
	t.Cleanup(func() { outPath = "" })
	require.NoError(t, runQuickView(cmd, []string{"12-1"}))
	assert.FileExists(t, outPath)
}

func TestRunRefresh(t *testing.T) {
	cfg = testConfig(t)
	serviceOptions = testOptions(t)
	t.Cleanup(func() {
		cfg = nil
		serviceOptions = nil
	})

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runRefresh(cmd, nil))
	assert.Contains(t, buf.String(), "Dataset refreshed: 1 floors, 1 periods")
	assert.FileExists(t, cfg.DatasetCachePath())
}

func TestChatLoop(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()

	in := strings.NewReader("你好\n速览 上期\n深渊统计 上期\n速览 12-1\n")
	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), svc, in, &out, dir))

	text := out.String()
	assert.Contains(t, text, "没有找到「2020年6月下」的深渊数据哦！")
	assert.NotContains(t, text, "你好")
	assert.NotContains(t, text, "深渊统计")
	assert.Contains(t, text, "[图片]")

	matches, err := filepath.Glob(filepath.Join(dir, "abyss-*.jpg"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestChatLoop_CancelledContext(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, chatLoop(ctx, svc, strings.NewReader("速览\n"), &out, t.TempDir()))
	assert.Empty(t, out.String())
}

func TestRootCommand_Syntax(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		logging.SetConsole(nil)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"syntax", "--config", filepath.Join(dir, "absent.yaml"), "--dir", dir})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, buf.String(), "深渊统计")
	require.NotNil(t, cfg)
	assert.Equal(t, dir, cfg.Dir)
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(rOut)
		_, _ = buf.ReadFrom(rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
