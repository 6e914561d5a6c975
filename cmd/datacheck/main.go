// Command datacheck loads every input of the nitromap API with the server's
// configuration and prints a summary of what was loaded.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/nitromap/nitromap/internal/config"
	"github.com/nitromap/nitromap/internal/dataset"
	"github.com/nitromap/nitromap/internal/domain"
)

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "datacheck: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.Log, stderr, "nitromap-datacheck", "")
	if err != nil {
		return err
	}

	src, closeSource, err := dataset.BudgetSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	store, err := dataset.Load(ctx, dataset.Options{
		Data:   cfg.Data,
		Budget: src,
		Logger: log,
	})
	if err != nil {
		return err
	}

	printSummary(stdout, store)
	return nil
}

func printSummary(w io.Writer, store *dataset.Store) {
	sum := store.Summary()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "DATASET\tMEASURE\tVALUE\n")
	fmt.Fprintf(tw, "emissions\trows\t%d\n", sum.EmissionsRows)
	fmt.Fprintf(tw, "emissions\tyears\t%s\n", yearRange(sum.Years))
	fmt.Fprintf(tw, "emissions\tlanduse classes\t%d\n", sum.Landuses)
	for _, l := range domain.SubNationalLevels {
		fmt.Fprintf(tw, "emissions\t%s units\t%d\n", l, sum.Units[l])
	}
	fmt.Fprintf(tw, "budget\tentries\t%d\n", sum.BudgetEntries)
	fmt.Fprintf(tw, "budget\trejected keys\t%d\n", sum.BudgetRejected)
	for _, l := range domain.Levels {
		fmt.Fprintf(tw, "geometry\t%s features\t%d\n", l, sum.GeometryFeatures[l])
	}
	_ = tw.Flush()

	if rejected := store.Budget.Rejected(); len(rejected) > 0 {
		keys := append([]string(nil), rejected...)
		sort.Strings(keys)
		fmt.Fprintf(w, "\nrejected budget keys:\n  %s\n", strings.Join(keys, "\n  "))
	}
}

func yearRange(years []int) string {
	if len(years) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d-%d (%d)", years[0], years[len(years)-1], len(years))
}
