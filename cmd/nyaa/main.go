package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/nyaa-go/internal/app"
	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/internal/tui"
	"github.com/yourusername/nyaa-go/pkg/logger"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "nyaa [term...]",
		Short: "nyaa - search the nyaa torrent index from the terminal",
		Long: `Search nyaa, browse results page by page and hand torrents to a
download client. Without a subcommand the interactive interface starts,
seeded with the given search term.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/nyaa/config.yaml)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serverCmd)
}

// cliLogger builds the logger for one-shot commands. stdout is kept free
// for command output.
func cliLogger(config *domain.Config) (*zap.Logger, error) {
	output := config.Logging.OutputPath
	if output == "" || output == "stdout" {
		output = "stderr"
	}
	return logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: output,
	})
}

// loadServices reads the configuration and wires the services for a
// one-shot command
func loadServices() (*app.Services, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := cliLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return app.NewServices(config, log)
}

func runTUI(cmd *cobra.Command, args []string) error {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the renderer, so logs go to a file.
	log, err := logger.NewFileLogger(config.Logging.Level, filepath.Join(config.Logging.LogsDir, "nyaa.log"))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	services, err := app.NewServices(config, log)
	if err != nil {
		return err
	}
	defer services.Close()

	return tui.Run(services, strings.Join(args, " "))
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
