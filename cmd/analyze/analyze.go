// Package analyze implements the one-shot archive analysis command.
package analyze

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/camtrap-go/internal/analyzer"
	"github.com/tphakala/camtrap-go/internal/conf"
	"github.com/tphakala/camtrap-go/internal/detection"
	"github.com/tphakala/camtrap-go/internal/logging"
)

// Command creates the analyze command for one-shot archive analysis.
func Command(settings *conf.Settings) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [archive.zip]",
		Short: "Analyze a camera trap image archive",
		Long:  "Upload a zip archive of camera trap images to the analyzer service and print the triage summary.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, settings, args[0], outputJSON)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print the full triaged prediction list as JSON")

	return cmd
}

// runAnalyze uploads the archive, partitions the returned predictions and
// prints the triage summary.
func runAnalyze(cmd *cobra.Command, settings *conf.Settings, archivePath string, outputJSON bool) error {
	client := analyzer.New(&settings.Analyzer, logging.ForService("analyzer"))
	defer client.Close()

	batch, err := client.AnalyzeArchive(cmd.Context(), archivePath)
	if err != nil {
		return fmt.Errorf("archive analysis failed: %w", err)
	}

	items, dropped := detection.IngestBatch(batch, settings.Review.ConfidenceThreshold)

	if outputJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(items)
	}

	needsReview := 0
	for _, item := range items {
		if item.NeedsReview {
			needsReview++
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Analyzed %s: %d predictions\n", archivePath, len(batch.Predictions))
	fmt.Fprintf(cmd.OutOrStdout(), "  auto accepted: %d\n", len(items)-needsReview)
	fmt.Fprintf(cmd.OutOrStdout(), "  needs review:  %d\n", needsReview)
	fmt.Fprintf(cmd.OutOrStdout(), "  dropped:       %d\n", dropped)

	for _, item := range items {
		if !item.NeedsReview {
			continue
		}
		species, score := item.TopDisplayName()
		fmt.Fprintf(cmd.OutOrStdout(), "  review: %s (%s %.2f)\n", item.ImagePath, species, score)
	}

	return nil
}
