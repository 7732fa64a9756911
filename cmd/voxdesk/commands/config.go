package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		s := cfg.Settings
		fmt.Printf("config:           %s\n", cfg.SettingsPath())
		fmt.Printf("api_key:          %s\n", maskKey(s.APIKey))
		fmt.Printf("model:            %s\n", s.Model)
		fmt.Printf("voice:            %s\n", orUnset(s.Voice))
		fmt.Printf("mic_device:       %s\n", orUnset(s.MicDevice))
		fmt.Printf("default_location: %s\n", orUnset(s.DefaultLocation))
		fmt.Printf("feed_addr:        %s\n", s.FeedAddr)
		fmt.Printf("data_dir:         %s\n", s.DataDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one setting and save",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		key, value := args[0], args[1]
		switch key {
		case "api_key":
			cfg.Settings.APIKey = value
		case "model":
			cfg.Settings.Model = value
		case "voice":
			cfg.Settings.Voice = value
		case "mic_device":
			cfg.Settings.MicDevice = value
		case "default_location":
			cfg.Settings.DefaultLocation = value
		case "feed_addr":
			cfg.Settings.FeedAddr = value
		case "data_dir":
			cfg.Settings.DataDir = value
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Saved %s.\n", key)
		return nil
	},
}

func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
