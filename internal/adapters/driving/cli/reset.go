package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdocs/planrag/internal/core/ports/driven"
)

// store is injected for the reset command only; everything else goes
// through the driving port services.
var store driven.VectorStore

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all ingested documents and chunks",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

// SetStore injects the vector store for the reset command.
func SetStore(s driven.VectorStore) {
	store = s
}

func runReset(cmd *cobra.Command, _ []string) error {
	if store == nil {
		return errors.New("store not configured")
	}

	if !resetForce {
		cmd.Print("This deletes all ingested data. Continue? [y/N] ")
		var reply string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &reply); err != nil || (reply != "y" && reply != "Y") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := store.Reset(context.Background()); err != nil {
		return err
	}
	cmd.Println("Store reset.")
	return nil
}
