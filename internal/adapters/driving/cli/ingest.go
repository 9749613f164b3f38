package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest planning documents from a directory",
	Long: `Walks the directory, loads every supported file (PDF, text,
Markdown, CSV, JSON), chunks and embeds the text and stores it in the
vector store. Re-ingesting a file replaces its previous contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the directory for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	dir := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := ingestService.Ingest(ctx, dir)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Run %s\n", report.RunID)
	cmd.Printf("  Files:     %d\n", report.Files)
	cmd.Printf("  Documents: %d\n", report.Documents)
	cmd.Printf("  Chunks:    %d (%d embedded)\n", report.Chunks, report.Embedded)
	if len(report.Failures) > 0 {
		cmd.Printf("  Failures:  %d\n", len(report.Failures))
		for _, f := range report.Failures {
			cmd.Printf("    %s: %s\n", f.Path, f.Err)
		}
	}

	if !ingestWatch {
		return nil
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)
	if err := ingestService.Watch(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
