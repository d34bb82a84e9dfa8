package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "camtrap",
		Short: "Camera-trap observation curation tool",
		Long: `camtrap curates camera-trap observation tables: it derives temporally
independent detection events from tagged observations and writes the
independence, event and count tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default is ./camtrap.yaml)")
	cmd.PersistentFlags().String("db", "camtrap.db", "path of the sqlite job store")

	cmd.AddCommand(captureCommand())
	return cmd
}

// initConfig wires viper: flag values, CAMTRAP_* environment variables and
// an optional config file, in ascending precedence of flag > env > file.
func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("camtrap")
	viper.AutomaticEnv()

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	viper.SetConfigName("camtrap")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		// A missing default config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}
