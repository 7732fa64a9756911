package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxdesk/voxdesk/cmd/voxdesk/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "voxdesk",
	Short: "Voice assistant for your personal organizer",
	Long: `voxdesk - a hands-free voice assistant over a personal organizer.

It streams your microphone to a realtime conversational model, speaks the
replies, and edits your tasks, shopping list, notes and custom lists through
tool calls.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/voxdesk/
  Linux:   ~/.config/voxdesk/
  Windows: %AppData%/voxdesk/

Examples:
  # Store the API key and pick a voice
  voxdesk config set api_key YOUR_KEY
  voxdesk config set voice Puck

  # Start the assistant; press Enter to toggle the conversation
  voxdesk run`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration, or an error when it could not
// be loaded (e.g. HOME not set).
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose reports whether --verbose was given.
func IsVerbose() bool {
	return verbose
}
