// tabulagen writes the Mapping methods of the tag-declared types in the
// given packages.
//
//	go run github.com/syssam/tabula/cmd/tabulagen ./model/...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/syssam/tabula/compiler/gen"
	"github.com/syssam/tabula/compiler/load"
)

func main() {
	var (
		filename = flag.String("o", gen.DefaultFilename, "name of the file written in each package")
		header   = flag.String("header", "", "header comment of generated files (default: the generated-code marker)")
		workers  = flag.Int("workers", 0, "files written in parallel (default: GOMAXPROCS)")
		tags     = flag.String("tags", "", "comma-separated build tags used when loading packages")
		verbose  = flag.Bool("v", false, "log loaded types")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: tabulagen [flags] [packages]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var opts []gen.Option
	if *filename != gen.DefaultFilename {
		opts = append(opts, gen.WithFilename(*filename))
	}
	if *header != "" {
		opts = append(opts, gen.WithHeader(*header))
	}
	if *workers > 0 {
		opts = append(opts, gen.WithWorkers(*workers))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, logger, *tags, flag.Args(), opts...); err != nil {
		logger.Error("tabulagen failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, tags string, patterns []string, opts ...gen.Option) error {
	g, err := gen.New(opts...)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	cfg := load.Config{Generated: g.Config().Filename}
	if tags != "" {
		cfg.BuildFlags = []string{"-tags=" + strings.TrimSpace(tags)}
	}
	pkgs, err := load.Load(ctx, cfg, patterns...)
	if err != nil {
		return err
	}
	for _, p := range pkgs {
		for _, t := range p.Types {
			logger.Debug("loaded type", "package", p.Path, "type", t.Name, "columns", len(t.Columns), "navigations", len(t.Navigations))
		}
	}
	if err := g.Generate(ctx, pkgs); err != nil {
		return err
	}
	logger.Info("mapping generated", "packages", len(pkgs))
	return nil
}
