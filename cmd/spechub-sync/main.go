// Command spechub-sync exports an OpenAPI spec from AWS API Gateway (or
// reads a local file) and syncs it into the spec hub, then triggers
// collection generation from it.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techcorp/spechub-sync/internal/config"
	"github.com/techcorp/spechub-sync/internal/hub"
	"github.com/techcorp/spechub-sync/internal/ingest"
	"github.com/techcorp/spechub-sync/internal/source"
)

var rootCmd = &cobra.Command{
	Use:   "spechub-sync",
	Short: "Sync an OpenAPI spec from API Gateway or a local file to the spec hub",
	Long: `spechub-sync exports an OpenAPI 3.0 spec from an API Gateway stage
(or reads a local file), upserts it into the spec hub by name, and
triggers baseline collection generation from it.

The hub credential is read from the POSTMAN_API_KEY environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("workspace-id", "", "Spec hub workspace ID (required)")
	flags.String("local-spec", "", "Path to a local OpenAPI spec to ingest (skips API Gateway export)")
	flags.String("region", "", "AWS region (e.g. us-east-1)")
	flags.String("rest-api-id", "", "API Gateway REST API ID")
	flags.String("stage-name", "", "API Gateway stage (e.g. dev)")
	flags.String("spec-name", "", "Name for the spec in the hub (default: derived from the document title)")
	flags.String("out", "openapi.yaml", "Output file, written in both modes")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.New()
	if err != nil {
		return &source.ConfigError{Reason: fmt.Sprintf("invalid environment configuration: %v", err)}
	}
	if cfg.APIKey == "" {
		return config.ErrMissingAPIKey
	}

	flags := cmd.Flags()
	workspaceID, _ := flags.GetString("workspace-id")
	localSpec, _ := flags.GetString("local-spec")
	region, _ := flags.GetString("region")
	restAPIID, _ := flags.GetString("rest-api-id")
	stageName, _ := flags.GetString("stage-name")
	specName, _ := flags.GetString("spec-name")
	out, _ := flags.GetString("out")

	if workspaceID == "" {
		return &source.ConfigError{Reason: "missing required flag: --workspace-id"}
	}

	// Local mode takes precedence when both are offered.
	mode := source.ModeExport
	if localSpec != "" {
		mode = source.ModeLocal
	}

	syncer := &ingest.Syncer{
		Source: &source.Source{Exporter: source.NewGatewayExporter()},
		Hub:    hub.NewClient(cfg.BaseURL, cfg.APIKey, hub.WithTimeout(cfg.RequestTimeout)),
	}

	_, err = syncer.Run(cmd.Context(), ingest.Input{
		WorkspaceID: workspaceID,
		SpecName:    specName,
		Mode:        mode,
		Params: source.Params{
			LocalPath: localSpec,
			Region:    region,
			RestAPIID: restAPIID,
			StageName: stageName,
			OutPath:   out,
		},
	})
	return err
}

// exitCode maps a run error to the process exit code: 2 for configuration
// problems (missing credential, missing export flags), 1 otherwise.
func exitCode(err error) int {
	var cfgErr *source.ConfigError
	if errors.Is(err, config.ErrMissingAPIKey) || errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
