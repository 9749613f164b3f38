// Package cli implements the command-line interface.
//
// Commands are thin adapters: they parse flags, call the driving port
// services and format output. All business logic lives in the core.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civicdocs/planrag/internal/core/ports/driving"
	"github.com/civicdocs/planrag/internal/logger"
)

// version is set by Execute.
var version = "dev"

// Injected services. nil until SetServices is called.
var (
	answerService driving.AnswerService
	ingestService driving.IngestService
	statusService driving.StatusService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "planrag",
	Short: "Question answering over planning documents",
	Long: `planrag ingests planning documents (PDF, text, CSV, JSON),
indexes them in a local vector store and answers natural-language
questions about them with cited sources.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	// Consumed during wiring, before command dispatch; registered here
	// so cobra accepts and documents it.
	rootCmd.PersistentFlags().String("config", "", "path to config file")
}

// SetServices injects the driving port services the commands call.
func SetServices(
	answer driving.AnswerService,
	ingest driving.IngestService,
	status driving.StatusService,
) {
	answerService = answer
	ingestService = ingest
	statusService = status
}

// Execute runs the root command.
func Execute(v string) {
	version = v
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
