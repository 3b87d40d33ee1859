package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reelshorts/internal/app"
	"reelshorts/pkg/config"
)

var sourceURL string

var rootCmd = &cobra.Command{
	Use:   "reelshorts",
	Short: "Republish an Instagram Reel as a YouTube Short",
	Long: `Reelshorts downloads a single Instagram Reel, derives its title and hashtags,
and uploads it to YouTube Shorts. Missing input is asked for interactively.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().StringVar(&sourceURL, "url", "", "Instagram Reel URL")
}

// Execute runs the root command. Errors are reported once, through slog.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Run failed", "error", err)
		return err
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.SlogLevel())

	service := app.BuildService(cfg, os.Stdin, os.Stdout)
	_, err = app.NewPipeline(service).Run(cmd.Context(), sourceURL)
	return err
}

func setupLogger(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
