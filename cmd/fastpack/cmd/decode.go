package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoobzio/fastpack"
	"github.com/zoobzio/fastpack/json"
	"github.com/zoobzio/fastpack/yaml"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode fastpack bytes to JSON or YAML",
		Long: `Decode fastpack bytes and print them as JSON or YAML.

Tuples and sets print as arrays, decimals and UUIDs as strings, and records
as objects led by the __record__ and __namespace__ marker keys.

With --many every concatenated value is decoded and printed on its own line
(JSON) or as its own document (YAML).

Example:
  fastpack decode ana.fp --format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			codec, sep, err := outputCodec(format, cmd)
			if err != nil {
				return err
			}

			proc := processorFrom(cmd)
			many, _ := cmd.Flags().GetBool("many")

			var values []any
			if many {
				values, err = proc.UnpackMany(input)
			} else {
				var v any
				v, err = proc.Unpack(input)
				values = []any{v}
			}
			if err != nil {
				return err
			}

			var out []byte
			for i, v := range values {
				text, err := codec.Marshal(v)
				if err != nil {
					return fmt.Errorf("value %d: %w", i, err)
				}
				if i > 0 {
					out = append(out, sep...)
				}
				out = append(out, text...)
			}
			if format == "json" {
				out = append(out, '\n')
			}

			loggerFrom(cmd).Info().Int("values", len(values)).Msg("decoded")
			return writeOutput(cmd, out)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringP("format", "f", "json", "Output format (json, yaml)")
	cmd.Flags().Bool("many", false, "Decode every concatenated value")
	cmd.Flags().Bool("compact", false, "Print JSON without indentation")
	return cmd
}

// outputCodec selects the text codec and the separator placed between values.
func outputCodec(format string, cmd *cobra.Command) (fastpack.Codec, string, error) {
	switch format {
	case "json":
		if compact, _ := cmd.Flags().GetBool("compact"); compact {
			return json.New(), "\n", nil
		}
		return json.NewIndent("  "), "\n", nil
	case "yaml":
		return yaml.New(), "---\n", nil
	}
	return nil, "", fmt.Errorf("unknown format %q (want json or yaml)", format)
}
