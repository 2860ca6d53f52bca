package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gsabyss/internal/abyss"
	"gsabyss/internal/render"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var outPath string

// quickViewCmd renders one quick view
var quickViewCmd = &cobra.Command{
	Use:     "quickview [words...]",
	Aliases: []string{abyss.CmdQuickView, abyss.CmdQuickViewLong},
	Short:   "Render the quick view of a floor",
	Long: `Renders the floor overview for a period. Words are the same as in chat:

  abyss quickview             floor 12 of the current period, all chambers
  abyss quickview 12-3 上期    floor 12 chamber 3 of the previous period
  abyss quickview 第十层 2023年1月下

See "abyss syntax" for the full grammar.`,
	RunE: runQuickView,
}

// statsCmd renders the Akasha statistics
var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{abyss.CmdStatistic},
	Short:   "Render the Akasha abyss statistics",
	RunE:    runStats,
}

func runQuickView(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(timeout)
	defer cancel()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	return writeReply(cmd.OutOrStdout(), svc.QuickView(ctx, joinArgs(args)), outPath, ".")
}

func runStats(cmd *cobra.Command, args []string) error {
	// Extra words never produce a reply, the same as in chat.
	if len(args) > 0 {
		return nil
	}
	ctx, cancel := commandContext(timeout)
	defer cancel()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	return writeReply(cmd.OutOrStdout(), svc.Statistic(ctx), outPath, ".")
}

// writeReply prints a text reply or saves an image reply and prints where it went.
// An empty path picks a fresh name inside dir.
func writeReply(w io.Writer, reply abyss.Reply, path, dir string) error {
	if !reply.IsImage() {
		fmt.Fprintln(w, reply.Text)
		return nil
	}
	if path == "" {
		path = filepath.Join(dir, replyFileName(reply))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, reply.Image, 0644); err != nil {
		return fmt.Errorf("failed to write picture: %w", err)
	}
	fmt.Fprintf(w, "%s (%d bytes)\n", path, len(reply.Image))
	return nil
}

func replyFileName(reply abyss.Reply) string {
	ext := ".jpg"
	if reply.Format == render.FormatPNG {
		ext = ".png"
	}
	return "abyss-" + uuid.NewString() + ext
}
