package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gsabyss/internal/abyss"
	"gsabyss/internal/logging"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	chatOutDir  string
	chatRefresh time.Duration
)

// chatCmd answers chat lines from stdin
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Answer chat commands read from stdin",
	Long: `Reads one chat message per line and answers the abyss commands:

  速览 / 深渊速览 [words]   quick view
  深渊统计                 Akasha statistics

Other lines are ignored. Pictures are written to --out-dir. The dataset is refreshed
in the background and reloaded whenever the cached file changes.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var (
	chatPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0C040")).Bold(true)
	chatText   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E6E6"))
	chatImage  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	chatError  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5A5A"))
)

func runChat(cmd *cobra.Command, args []string) error {
	// No --timeout here; the loop runs until stdin closes or a signal arrives.
	ctx, cancel := commandContext(0)
	defer cancel()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	fw, err := svc.WatchDataset(ctx)
	if err != nil {
		logging.WatchWarn("Dataset watcher unavailable: %v", err)
	} else {
		defer fw.Stop()
	}

	refreshCtx, stopRefresh := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.RunRefresher(refreshCtx, chatRefresh)
	}()
	defer func() {
		stopRefresh()
		<-done
	}()

	return chatLoop(ctx, svc, cmd.InOrStdin(), cmd.OutOrStdout(), chatOutDir)
}

// chatLoop dispatches each input line until in is exhausted or ctx ends.
func chatLoop(ctx context.Context, svc *abyss.Service, in io.Reader, out io.Writer, dir string) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		reply, ok := svc.Dispatch(ctx, line)
		if !ok {
			continue
		}
		fmt.Fprintln(out, chatPrompt.Render("> "+line))
		if err := printChatReply(out, reply, dir); err != nil {
			fmt.Fprintln(out, chatError.Render(err.Error()))
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func printChatReply(out io.Writer, reply abyss.Reply, dir string) error {
	if !reply.IsImage() {
		fmt.Fprintln(out, chatText.Render(reply.Text))
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	var buf strings.Builder
	if err := writeReply(&buf, reply, "", dir); err != nil {
		return err
	}
	fmt.Fprintln(out, chatImage.Render("[图片] "+strings.TrimSpace(buf.String())))
	return nil
}
