package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zoobzio/fastpack"
	"github.com/zoobzio/fastpack/basic"
)

type ctxKey int

const (
	processorKey ctxKey = iota
	loggerKey
)

// NewRootCmd builds the fastpack command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fastpack",
		Short: "fastpack - compact binary serialization",
		Long: `fastpack converts JSON and YAML documents to the fastpack binary
format and back, dumps the tag structure of encoded data, and benchmarks
fastpack against other codecs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			logger, err := initLogger(cmd.ErrOrStderr(), level)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}

			maxDepth, _ := cmd.Flags().GetInt("max-depth")
			accelerated, _ := cmd.Flags().GetBool("accelerated")

			limits := fastpack.Limits{MaxDepth: maxDepth}
			opts := []fastpack.Option{fastpack.WithLimits(limits)}
			if accelerated {
				opts = append(opts, fastpack.WithAccelerator(basic.AcceleratorWithLimits(limits)))
			}
			proc := fastpack.NewProcessor(opts...)

			logger.Debug().
				Int("max_depth", proc.Limits().MaxDepth).
				Bool("accelerated", proc.Accelerated()).
				Msg("processor ready")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, processorKey, proc)
			ctx = context.WithValue(ctx, loggerKey, &logger)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.PersistentFlags().Int("max-depth", fastpack.DefaultLimits().MaxDepth, "Maximum container nesting depth")
	root.PersistentFlags().Bool("accelerated", false, "Route primitive values through the basic accelerator")
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newInspectCmd(),
		newBenchCmd(),
	)
	return root
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

func processorFrom(cmd *cobra.Command) *fastpack.Processor {
	if ctx := cmd.Context(); ctx != nil {
		if p, ok := ctx.Value(processorKey).(*fastpack.Processor); ok {
			return p
		}
	}
	return fastpack.Default()
}

func loggerFrom(cmd *cobra.Command) *zerolog.Logger {
	if ctx := cmd.Context(); ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok {
			return l
		}
	}
	nop := zerolog.Nop()
	return &nop
}

// readInput reads the file named by args, or stdin when args is empty or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// writeOutput writes data to the --output file, or stdout when unset.
func writeOutput(cmd *cobra.Command, data []byte) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
