package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoobzio/fastpack/yaml"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a JSON or YAML document as fastpack",
		Long: `Encode a JSON or YAML document as fastpack bytes. Mapping keys keep
their document order.

With --many the document must be a sequence; each element is encoded as a
separate value and the encodings are concatenated.

Example:
  echo '{"name":"Ana","age":30,"active":true}' | fastpack encode -o ana.fp`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			doc, err := yaml.ParseDocument(input)
			if err != nil {
				return fmt.Errorf("parse document: %w", err)
			}

			proc := processorFrom(cmd)
			many, _ := cmd.Flags().GetBool("many")

			var out []byte
			if many {
				items, ok := doc.([]any)
				if !ok {
					return fmt.Errorf("--many needs a sequence document, got %T", doc)
				}
				out, err = proc.PackMany(items)
			} else {
				out, err = proc.Pack(doc)
			}
			if err != nil {
				return err
			}

			loggerFrom(cmd).Info().
				Int("input_bytes", len(input)).
				Int("output_bytes", len(out)).
				Msg("encoded")
			return writeOutput(cmd, out)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().Bool("many", false, "Encode each element of a top-level sequence separately")
	return cmd
}
