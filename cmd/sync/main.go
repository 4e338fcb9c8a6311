// translation-sync pulls the latest translation export, mirrors the source-language
// strings next to it, flattens every (language, project) pair into one document and
// upserts the documents into the store.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	root := &cobra.Command{
		Use:   "translation-sync",
		Short: "Sync the latest translation export into the document store",
		Long: `translation-sync rebuilds the translation platform export, downloads and extracts
it, mirrors the source-language strings from the source repository, flattens every
(language, project) pair into one document and upserts the documents.

A run that finds nothing new exits 0 without touching the store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	root.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the flattened documents instead of writing them")
	root.Flags().StringVar(&opts.format, "format", formatJSON, "Dry-run output format: json or yaml")
	root.Flags().StringVar(&opts.workDir, "work-dir", "", "Directory for the archive and extracted tree (overrides WORK_DIR)")

	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "translation-sync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}
