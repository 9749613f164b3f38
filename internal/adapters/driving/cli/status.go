package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdocs/planrag/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store contents and service health",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}

	status, err := statusService.Check(context.Background())
	if err != nil {
		if errors.Is(err, domain.ErrSchemaMissing) {
			return fmt.Errorf("store is empty; run 'planrag ingest <dir>' first: %w", err)
		}
		return fmt.Errorf("status check failed: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Store:")
	cmd.Printf("  Documents: %d\n", status.Counts.DocumentCount)
	cmd.Printf("  Chunks:    %d (%d embedded)\n", status.Counts.ChunkCount, status.Counts.ChunksWithEmbedding)
	cmd.Println("Services:")
	cmd.Printf("  Embedding:  %s (%s)\n", okLabel(status.EmbeddingOK), status.EmbeddingModel)
	cmd.Printf("  Generation: %s (%s)\n", okLabel(status.GenerationOK), status.GenerationModel)
	return nil
}

func okLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "unreachable"
}
