package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ReviewPipeline/internal/app"
	"ReviewPipeline/internal/config"
	"ReviewPipeline/internal/logging"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "reviewpipeline",
		Short:        "Collects affiliate products and publishes AI-written reviews",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newCollectCmd(),
		newRegenerateCmd(),
		newCancelRetriesCmd(),
	)
	return root
}

func newApplication(cmd *cobra.Command) (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return app.New(cmd.Context(), cfg, logger)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the admin HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Run(cmd.Context())
		},
	}
}

func newCollectCmd() *cobra.Command {
	var maxItems int

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass and generate drafts for new items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.CollectOnce(cmd.Context(), maxItems)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "collected %d new items (requested %d)\n",
				result.Collected, result.Requested)
			for kind, count := range result.BySource {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", kind, count)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxItems, "max", 0, "items to collect this run (0 uses the configured default)")
	return cmd
}

func newRegenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <itemID>",
		Short: "Force one generation attempt for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Regenerate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "draft created for %s\n", args[0])
			return nil
		},
	}
}

func newCancelRetriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-retries",
		Short: "Drop every pending retry entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			dropped, err := application.CancelRetries(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %d pending retries\n", dropped)
			return nil
		},
	}
}
