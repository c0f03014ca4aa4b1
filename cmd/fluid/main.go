package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"github.com/gregwebs/go-recovery"
	"github.com/invakid404/fluid"
	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/codegen"
	"github.com/invakid404/fluid/descriptor"
	"github.com/invakid404/fluid/generator"
	"github.com/invakid404/fluid/internal/config"
	"github.com/invakid404/fluid/internal/docscan"
	"github.com/invakid404/fluid/internal/logging"
	"github.com/invakid404/fluid/internal/pool"
	"github.com/invakid404/fluid/paramgraph"
	"github.com/invakid404/fluid/pipe"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stoewer/go-strcase"
	"golang.org/x/sync/errgroup"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fluid",
		Short:         "Generate type-state fluent builders for the pipe catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a config file (defaults to ./fluid.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Use pretty console logging instead of structured JSON")

	rootCmd.AddCommand(newGenerateCmd(), newGraphCmd(), newDescribeCmd())

	return rootCmd
}

// setup loads the config with cmd's flags on top and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	return cfg, logging.New(cmd.ErrOrStderr(), level, cfg.Pretty), nil
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the assembly, operation and sub-assembly descriptors and their Go APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			return generate(cmd.Context(), cfg, logger)
		},
	}

	defaults := config.DefaultConfig()
	flags := cmd.Flags()
	flags.StringP("out", "o", defaults.Out, "Output directory")
	flags.String("format", defaults.Format, "Descriptor format (yaml or json)")
	flags.String("scope", defaults.Scope, "Only describe types whose package matches this doublestar pattern")
	flags.String("package-base", defaults.PackageBase, "Import path the generated packages live under")
	flags.String("docs", defaults.Docs, "YAML documentation file")
	flags.StringSlice("sources", defaults.Sources, "dir=import/path pairs scanned for doc comments")
	flags.Bool("track-path", defaults.TrackPath, "Keep parameter paths apart in the parameter graph")
	flags.Bool("go-source", defaults.GoSource, "Render Go sources next to the descriptors")

	return cmd
}

func generate(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	docs, err := loadDocs(cfg, logger)
	if err != nil {
		return err
	}

	registry, err := pipe.NewRegistry(catalog.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build the pipe catalog: %w", err)
	}

	g := generator.New(registry,
		generator.WithScope(cfg.Scope),
		generator.WithPackageBase(cfg.PackageBase),
		generator.WithDocs(docs),
		generator.WithTrackPath(cfg.TrackPath),
		generator.WithLogger(logger),
	)

	descriptors, err := fluid.Describe(ctx, g)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.Out, err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, d := range descriptors {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			return recovery.Call(func() error {
				return write(d, cfg, logger)
			})
		})
	}

	return eg.Wait()
}

func write(d *descriptor.Descriptor, cfg *config.Config, logger zerolog.Logger) error {
	target := filepath.Join(cfg.Out, strcase.SnakeCase(d.Name())+cfg.Extension())
	if err := descriptor.Save(d, target); err != nil {
		return err
	}
	logger.Info().Str("descriptor", d.Name()).Str("path", target).Msg("wrote descriptor")

	if !cfg.GoSource {
		return nil
	}

	file, err := codegen.Generate(d)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", d.Name(), err)
	}

	dir := filepath.Join(cfg.Out, path.Base(d.Package))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	written, err := codegen.Commit(file, d, dir)
	if err != nil {
		return err
	}
	logger.Info().Str("descriptor", d.Name()).Str("path", written).Msg("wrote API")

	return nil
}

func loadDocs(cfg *config.Config, logger zerolog.Logger) (generator.DocSet, error) {
	docs := generator.DocSet{}
	if cfg.Docs != "" {
		loaded, err := generator.LoadDocs(cfg.Docs)
		if err != nil {
			return nil, err
		}
		docs.Merge(loaded)
	}

	sources, err := cfg.SourceMap()
	if err != nil {
		return nil, err
	}

	scanner := docscan.New(logger)
	for dir, pkgPath := range sources {
		if err := scanner.Scan(dir, pkgPath); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
	}
	docs.Merge(scanner.Docs())

	return docs, nil
}

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph <type>",
		Short: "Print the parameter graph of a catalog type in DOT form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			registry, err := pipe.NewRegistry(catalog.WithLogger(logger))
			if err != nil {
				return err
			}

			typ, ok := registry.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown type %s", args[0])
			}

			graph, err := paramgraph.Build(registry.Constructors(typ),
				paramgraph.WithTrackPath(cfg.TrackPath),
				paramgraph.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			buf := pool.Buffers.Get()
			defer pool.Buffers.Put(buf)

			if err := graph.WriteDOT(buf, catalog.SimpleName(typ)); err != nil {
				return err
			}

			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <descriptor>",
		Short: "Query a descriptor file with a gjson path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := cmd.Flags().GetString("query")
			if err != nil {
				return err
			}

			d, err := descriptor.Load(args[0])
			if err != nil {
				return err
			}

			data, err := descriptor.Marshal(d, descriptor.FormatJSON)
			if err != nil {
				return err
			}

			result, err := descriptor.Query(data, query)
			if err != nil {
				return err
			}
			if !result.Exists() {
				return fmt.Errorf("no match for %q in %s", query, args[0])
			}

			_, err = io.WriteString(cmd.OutOrStdout(), result.String()+"\n")
			return err
		},
	}

	cmd.Flags().StringP("query", "q", "root.methods.#.id", "gjson path to evaluate")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger.Fatal().Err(err).Msg("Command failed")
	}
}
