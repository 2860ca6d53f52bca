package abyss

import (
	"context"
	"strings"
	"time"

	"gsabyss/internal/logging"
	"gsabyss/internal/watch"

	"github.com/google/uuid"
)

// Command prefixes. Longer prefixes come first so "深渊速览" is not read as "深渊" + "速览".
const (
	CmdQuickViewLong = "深渊速览"
	CmdQuickView     = "速览"
	CmdStatistic     = "深渊统计"
)

// Dispatch answers one chat line. ok is false when the line is not a command or is a
// command that stays silent, such as the statistics command with trailing words.
func (s *Service) Dispatch(ctx context.Context, line string) (reply Reply, ok bool) {
	line = strings.TrimSpace(line)
	req := uuid.NewString()
	log := logging.Get(logging.CategoryCommand).With("req", req)
	audit := logging.Audit(req, logging.CategoryCommand)
	start := time.Now()

	switch {
	case strings.HasPrefix(line, CmdStatistic):
		if rest := strings.TrimSpace(strings.TrimPrefix(line, CmdStatistic)); rest != "" {
			log.Debug("Ignoring %s with arguments %q", CmdStatistic, rest)
			audit.CommandIgnored(CmdStatistic, rest)
			return Reply{}, false
		}
		log.Info("Dispatching %s", CmdStatistic)
		audit.CommandReceived(CmdStatistic, "")
		reply = s.Statistic(ctx)
		audit.CommandReplied(CmdStatistic, reply.kind(), time.Since(start), reply.failure())
		return reply, true

	case strings.HasPrefix(line, CmdQuickViewLong), strings.HasPrefix(line, CmdQuickView):
		words := strings.TrimPrefix(line, CmdQuickViewLong)
		if words == line {
			words = strings.TrimPrefix(line, CmdQuickView)
		}
		words = strings.TrimSpace(words)
		log.Info("Dispatching %s %q", CmdQuickView, words)
		audit.CommandReceived(CmdQuickView, words)
		reply = s.QuickView(ctx, words)
		audit.CommandReplied(CmdQuickView, reply.kind(), time.Since(start), reply.failure())
		return reply, true
	}
	return Reply{}, false
}

func (r Reply) kind() string {
	if r.IsImage() {
		return r.Format
	}
	return "text"
}

// failure is the reply text for anything that is not a picture.
func (r Reply) failure() string {
	if r.IsImage() {
		return ""
	}
	return r.Text
}

// RunRefresher force-refreshes the dataset every interval until ctx ends. Failures
// are logged and the previous dataset stays in use.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.cfg.GetRefreshInterval()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logging.Schedule("Scheduled dataset refresh")
			if err := s.Refresh(ctx); err != nil {
				logging.Get(logging.CategorySchedule).Warn("Scheduled refresh failed: %v", err)
			}
		}
	}
}

// WatchDataset reloads the in-memory dataset whenever the cache file is replaced, for
// example by another process running refresh. The caller stops the watcher.
func (s *Service) WatchDataset(ctx context.Context) (*watch.FileWatcher, error) {
	fw, err := watch.New(func(_ context.Context, path string) {
		if err := s.Reload(); err != nil {
			logging.WatchWarn("Reload after change to %s failed: %v", path, err)
		}
	}, s.DatasetPath())
	if err != nil {
		return nil, err
	}
	if err := fw.Start(ctx); err != nil {
		return nil, err
	}
	return fw, nil
}
