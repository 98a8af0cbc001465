package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/config"
	"github.com/portcullisgw/portcullis/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long: `Generate the gateway's OpenAPI 3 document without starting a server.
The output matches what a running gateway serves at /openapi.json, including
the per-operation role notes derived from the permission table.`,
		Example: `  portcullis openapi                   # print to stdout
  portcullis openapi -o openapi.json   # write to file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")

	return cmd
}

func runOpenAPI(outputFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	doc := openapi.Generate(displayBaseURL(cfg), cfg.Auth.APIKeyHeader, authz.DefaultTable())

	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, jsonBytes, 0644); err != nil {
			return fmt.Errorf("write spec: %w", err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", outputFile, len(jsonBytes))
		return nil
	}

	fmt.Println(string(jsonBytes))
	return nil
}
