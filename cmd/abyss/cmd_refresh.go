package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gsabyss/internal/store"

	"github.com/spf13/cobra"
)

var assetCategory string

// refreshCmd forces a dataset download
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download the schedule dataset again",
	Long: `Downloads the HHW dataset, corrects its schedule keys and replaces the cached copy.
A running "abyss chat" picks the new file up on its own.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

// assetsCmd lists the asset index
var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List downloaded icons",
	Args:  cobra.NoArgs,
	RunE:  runAssets,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(timeout)
	defer cancel()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	ds, err := svc.Dataset(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Dataset refreshed: %d floors, %d periods\n", ds.Floors(), len(ds.Schedule()))
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", svc.DatasetPath())
	return nil
}

func runAssets(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(timeout)
	defer cancel()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.Index() == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Asset index disabled.")
		return nil
	}
	assets, err := svc.Index().List(assetCategory)
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}
	printAssets(cmd.OutOrStdout(), assets)
	return nil
}

func printAssets(w io.Writer, assets []store.Asset) {
	if len(assets) == 0 {
		fmt.Fprintln(w, "No assets downloaded yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tNAME\tSIZE\tBYTES\tFETCHED")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\n", a.Category, a.Name, a.Width, a.Height, a.Bytes, a.FetchedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d asset(s)\n", len(assets))
}
