package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"tool-guard-agent/internal/infrastructure/config"
)

// schemaCmd represents the schema command.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for the patterns file",
	Long: `Print the JSON Schema describing the custom patterns file accepted
by the --patterns flag. Useful for editor validation and for generating
pattern files programmatically.`,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

// runSchema executes the schema command.
func runSchema(cmd *cobra.Command, _ []string) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(config.PatternsFileJSON{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
