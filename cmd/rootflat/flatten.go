package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/rootflat/pkg/compression"
	"github.com/ajitpratap0/rootflat/pkg/config"
	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/fielddoc"
	"github.com/ajitpratap0/rootflat/pkg/flatten"
	"github.com/ajitpratap0/rootflat/pkg/frame"
	"github.com/ajitpratap0/rootflat/pkg/logger"
	"github.com/ajitpratap0/rootflat/pkg/metrics"
	"github.com/ajitpratap0/rootflat/pkg/mmap"
	"github.com/ajitpratap0/rootflat/pkg/observability"
)

// viper keys bound to flatten command flags
var flagKeys = map[string]string{
	"format":      "output.format",
	"compression": "output.compression",
	"level":       "output.level",
	"output":      "output.path",
	"entry-start": "flatten.entry_start",
	"entry-stop":  "flatten.entry_stop",
	"workers":     "flatten.workers",
	"log-level":   "log.level",
	"trace":       "trace.enabled",
}

func newFlattenCmd() *cobra.Command {
	var input, configFile, metricsFile string
	var noFlatten bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Flatten a field document into a table",
		Long: `Flatten reads a JSON field document, expands ragged fields into one row per
element with an (entry, subentry) index, and writes the table as Arrow IPC,
CSV or JSON lines.

Example:
  rootflat flatten --input muons.json --format csv --compression zstd --output muons.csv.zst`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			for flag, key := range flagKeys {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return errors.Wrap(err, errors.ErrorTypeConfig, "bind flag "+flag)
				}
			}
			if noFlatten {
				v.Set("flatten.enabled", false)
			}
			cfg, err := config.LoadViper(v, configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			if err := runFlatten(ctx, cfg, input, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			if metricsFile != "" {
				if err := metrics.RecordProcessStats(); err != nil {
					return errors.Wrap(err, errors.ErrorTypeInternal, "failed to sample process stats")
				}
				if err := metrics.WriteTextfile(metricsFile); err != nil {
					return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics")
				}
			}
			return nil
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "-", "Path to the JSON field document, - for stdin")
	f.StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file (optional)")
	f.StringP("format", "f", d.Output.Format, "Output format (arrow, csv, json)")
	f.String("compression", d.Output.Compression, "Output compression (none, gzip, deflate, snappy, s2, lz4, zstd)")
	f.Int("level", d.Output.Level, "Compression level (1 fastest, 5 default, 7 better, 9 best)")
	f.StringP("output", "o", "-", "Output path, - for stdout")
	f.Int64("entry-start", 0, "First entry number of the index")
	f.Int64("entry-stop", 0, "One past the last entry number; 0 with entry-start 0 numbers entries from 0")
	f.Int("workers", 0, "Concurrent field resolution workers (0 = NumCPU)")
	f.String("log-level", d.Log.Level, "Log level (debug, info, warn, error)")
	f.BoolVar(&noFlatten, "no-flatten", false, "Keep ragged fields as per-entry lists instead of expanding them")
	f.DurationVar(&timeout, "timeout", 0, "Abort after this long (0 = no limit)")
	f.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	f.Bool("trace", false, "Export OpenTelemetry spans as JSON to stderr")
	return cmd
}

// runFlatten executes one document-to-table conversion
func runFlatten(ctx context.Context, cfg *config.Config, input string, stdin io.Reader, stdout io.Writer) (err error) {
	if err = logger.Init(cfg.Log); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid log configuration")
	}
	defer func() { _ = logger.Sync() }()

	tree := "stdin"
	if input != "" && input != "-" {
		tree = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	ctx = context.WithValue(ctx, logger.TreeKey, tree)
	ctx = context.WithValue(ctx, logger.JobIDKey, uuid.NewString())
	log := logger.WithContext(ctx).With(zap.String("component", "rootflat-cli"))

	shutdown, err := observability.InitTracing(cfg.Trace, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("failed to flush spans", zap.Error(err))
		}
	}()

	ctx, span := observability.StartSpan(ctx, "rootflat.flatten", attribute.String("input", input))
	defer func() { observability.EndSpan(span, err) }()

	var fields []flatten.Field
	if input == "" || input == "-" {
		fields, err = fielddoc.Read(stdin)
	} else {
		var r *mmap.Reader
		r, err = mmap.NewReader(input)
		if err != nil {
			return err
		}
		defer r.Close()
		fields, err = fielddoc.Parse(r.Bytes())
	}
	if err != nil {
		return err
	}
	log.Info("loaded field document",
		zap.String("input", input),
		zap.Int("fields", len(fields)))

	fields, err = flatten.ResolveAll(ctx, fields, cfg.Flatten.GetWorkers())
	if err != nil {
		return err
	}

	start := time.Now()
	_, fspan := observability.StartSpan(ctx, "flatten.flatten")
	table, err := flatten.Flatten(fields, cfg.Flatten.Options(log))
	observability.EndSpan(fspan, err)
	if err != nil {
		return err
	}

	_, wspan := observability.StartSpan(ctx, "rootflat.write",
		attribute.String("format", cfg.Output.Format),
		attribute.Int("rows", table.Len()))
	err = writeTable(table, cfg.Output, stdout)
	observability.EndSpan(wspan, err)
	if err != nil {
		return err
	}

	log.Info("flatten completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns())),
		zap.String("format", cfg.Output.Format),
		zap.String("compression", cfg.Output.Compression))
	return nil
}

func writeTable(table *frame.Frame, out config.OutputConfig, stdout io.Writer) (err error) {
	alg, err := out.Algorithm()
	if err != nil {
		return err
	}

	dst := stdout
	if !out.IsStdout() {
		file, ferr := os.Create(out.Path) //nolint:gosec // G304: path comes from configuration
		if ferr != nil {
			return errors.Wrap(ferr, errors.ErrorTypeFile, "failed to create output")
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close output")
			}
		}()
		dst = file
	}

	w, err := compression.NewWriter(dst, alg, compression.Level(out.Level))
	if err != nil {
		return err
	}

	switch out.Format {
	case config.FormatCSV:
		err = table.WriteCSV(w)
	case config.FormatJSON:
		err = table.WriteJSON(w)
	default:
		err = table.WriteArrow(w, nil)
	}
	if err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
	}
	return nil
}
