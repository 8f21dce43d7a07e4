package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gidvion/internal/domain"
	"gidvion/internal/fileproc"
)

func extractCmd() *cobra.Command {
	var showStats bool
	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract text from files locally and print the digest",
		Long:  "Runs the same extraction pipeline chat attachments go through. PDFs are delegated to the backend; everything else is decoded locally.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(args, showStats)
		},
	}
	cmd.Flags().BoolVar(&showStats, "stats", false, "print batch statistics after the digest")
	return cmd
}

func runExtract(paths []string, showStats bool) error {
	cfg := loadConfig()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client := newAPIClient(cfg, store)
	processor := newProcessor(cfg, client)

	files := make([]domain.UploadFile, 0, len(paths))
	for _, p := range paths {
		f, err := readUpload(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, f)
	}

	results := processor.ProcessAll(ctx, files)
	fmt.Println(fileproc.FormatProcessedFiles(results))

	stats := fileproc.GetProcessingStats(results)
	if showStats {
		fmt.Printf("processed %d, failed %d, words %d, characters %d\n",
			stats.Processed, stats.Failed, stats.TotalWords, stats.TotalCharacters)
		for typ, n := range stats.ByType {
			fmt.Printf("  %s: %d\n", typ, n)
		}
	}

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", stats.Failed, len(results))
	}
	return nil
}
