package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/camtrap-go/cmd/analyze"
	"github.com/tphakala/camtrap-go/cmd/serve"
	"github.com/tphakala/camtrap-go/internal/conf"
	"github.com/tphakala/camtrap-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "camtrap",
		Short: "CamTrap-Go CLI",
		Long:  "Triage and review camera trap wildlife predictions.",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	subcommands := []*cobra.Command{
		serve.Command(settings),
		analyze.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Sync flag overrides back into the settings struct before any
		// subcommand runs.
		settings.Debug = viper.GetBool("debug")
		settings.Review.ConfidenceThreshold = viper.GetFloat64("review.confidencethreshold")
		settings.Analyzer.Endpoint = viper.GetString("analyzer.endpoint")

		logging.Debug("effective configuration",
			"threshold", settings.Review.ConfidenceThreshold,
			"analyzer", settings.Analyzer.Endpoint)

		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64VarP(&settings.Review.ConfidenceThreshold, "threshold", "t", viper.GetFloat64("review.confidencethreshold"), "Confidence threshold for automatic acceptance, value between 0.0 and 1.0 exclusive")
	rootCmd.PersistentFlags().StringVar(&settings.Analyzer.Endpoint, "analyzer", viper.GetString("analyzer.endpoint"), "URL of the remote image analyzer service")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding debug flag: %w", err)
	}
	if err := viper.BindPFlag("review.confidencethreshold", rootCmd.PersistentFlags().Lookup("threshold")); err != nil {
		return fmt.Errorf("error binding threshold flag: %w", err)
	}
	if err := viper.BindPFlag("analyzer.endpoint", rootCmd.PersistentFlags().Lookup("analyzer")); err != nil {
		return fmt.Errorf("error binding analyzer flag: %w", err)
	}

	return nil
}
