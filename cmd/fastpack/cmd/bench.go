package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoobzio/fastpack"
	"github.com/zoobzio/fastpack/basic"
	"github.com/zoobzio/fastpack/bench"
	"github.com/zoobzio/fastpack/bson"
	"github.com/zoobzio/fastpack/json"
	"github.com/zoobzio/fastpack/msgpack"
	"github.com/zoobzio/fastpack/yaml"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare fastpack with other codecs",
		Long: `Measure mean pack and unpack time and encoded size of the standard
datasets for fastpack and the other codecs, then time PackMany and
UnpackMany over a stream of small mappings.

Settings come from a TOML file given with --config; flags override it.

Example bench.toml:
  iterations = 5000
  datasets = ["simple", "complex"]
  codecs = ["json", "msgpack", "fastpack"]
  stream_count = 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultBenchConfig()
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				loaded, err := loadBenchConfig(path)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Iterations, _ = cmd.Flags().GetInt("iterations")
			}
			if cmd.Flags().Changed("dataset") {
				cfg.Datasets, _ = cmd.Flags().GetStringSlice("dataset")
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			return runBench(cmd, cfg)
		},
	}

	cmd.Flags().String("config", "", "TOML bench configuration file")
	cmd.Flags().IntP("iterations", "n", 10000, "Iterations per measurement")
	cmd.Flags().StringSlice("dataset", nil, "Datasets to run (simple, complex, large_list, extended)")
	return cmd
}

func runBench(cmd *cobra.Command, cfg benchConfig) error {
	proc := processorFrom(cmd)
	logger := loggerFrom(cmd)
	out := cmd.OutOrStdout()

	datasets := make([]bench.Dataset, 0, len(cfg.Datasets))
	for _, name := range cfg.Datasets {
		d, ok := bench.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown dataset %q", name)
		}
		datasets = append(datasets, d)
	}

	var plain, extended []bench.Dataset
	for _, d := range datasets {
		if d.Extended {
			extended = append(extended, d)
		} else {
			plain = append(plain, d)
		}
	}

	codecs := benchCodecs(proc, cfg.Codecs)
	logger.Debug().
		Int("iterations", cfg.Iterations).
		Int("datasets", len(datasets)).
		Int("codecs", len(codecs)).
		Msg("bench starting")

	if len(plain) > 0 {
		banner(out, "FASTPACK BENCHMARK")
		reports, err := bench.Run(cmd.Context(), plain, codecs, cfg.Iterations)
		if err != nil {
			return err
		}
		for _, r := range reports {
			printReport(out, r)
		}
	}

	if len(extended) > 0 {
		banner(out, "EXTENDED TYPES (fastpack only)")
		c := bench.Codec{Name: "fastpack", Codec: proc}
		for _, d := range extended {
			res, err := bench.Measure(c, d.Value, cfg.Iterations)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Dataset: %s\n", d.Name)
			fmt.Fprintf(out, "Pack time:   %.2f µs\n", micros(res.Pack))
			fmt.Fprintf(out, "Unpack time: %.2f µs\n", micros(res.Unpack))
			fmt.Fprintf(out, "Size:        %d bytes\n\n", res.Size)
		}
	}

	if cfg.StreamCount > 0 && cfg.StreamIterations > 0 {
		banner(out, fmt.Sprintf("STREAMING (%d items)", cfg.StreamCount))
		res, err := bench.MeasureStream(proc, bench.LargeList(cfg.StreamCount), cfg.StreamIterations)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "pack_many:   %.2f µs\n", micros(res.Pack))
		fmt.Fprintf(out, "unpack_many: %.2f µs\n", micros(res.Unpack))
		fmt.Fprintf(out, "Size:        %d bytes\n\n", res.Size)
	}
	return nil
}

// benchCodecs builds the named codecs. The fastpack entries use proc so the
// command's limits apply.
func benchCodecs(proc *fastpack.Processor, names []string) []bench.Codec {
	codecs := make([]bench.Codec, 0, len(names))
	for _, name := range names {
		var c fastpack.Codec
		switch name {
		case "fastpack":
			c = proc
		case "fastpack+basic":
			c = fastpack.NewProcessor(
				fastpack.WithRegistry(proc.Registry()),
				fastpack.WithLimits(proc.Limits()),
				fastpack.WithAccelerator(basic.AcceleratorWithLimits(proc.Limits())),
			)
		case "json":
			c = json.New()
		case "yaml":
			c = yaml.New()
		case "msgpack":
			c = msgpack.New()
		case "bson":
			c = bson.New()
		default:
			continue
		}
		codecs = append(codecs, bench.Codec{Name: name, Codec: c})
	}
	return codecs
}

func banner(w io.Writer, title string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "%s\n%s\n%s\n\n", rule, title, rule)
}

func printReport(w io.Writer, r bench.Report) {
	fmt.Fprintf(w, "Dataset: %s\n", r.Dataset)
	fmt.Fprintln(w, strings.Repeat("-", 58))
	fmt.Fprintln(w, "| Library        |  Pack (µs) | Unpack (µs) |    Size |")
	fmt.Fprintln(w, "|----------------|------------|-------------|---------|")
	for _, res := range r.Results {
		fmt.Fprintf(w, "| %-14s | %10.2f | %11.2f | %7d |\n", res.Codec, micros(res.Pack), micros(res.Unpack), res.Size)
	}
	fmt.Fprintln(w)
	if pct, ok := r.Reduction("json", "fastpack"); ok {
		fmt.Fprintf(w, "Size reduction vs JSON: %.1f%%\n", pct)
	}
	fmt.Fprintln(w)
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
