// Package main provides the blog static site build CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/baseballyama/blog/internal/buildinfo"
	"github.com/baseballyama/blog/internal/config"
	"github.com/baseballyama/blog/internal/exporter"
	"github.com/baseballyama/blog/internal/ogp"
	"github.com/baseballyama/blog/static"
)

const faviconSize = 192

func main() {
	cfg := config.Default()
	config.ApplyEnvOverrides(&cfg)

	flags := pflag.NewFlagSet("blog-build", pflag.ExitOnError)
	config.RegisterFlags(flags, &cfg)
	config.RegisterBuildFlags(flags, &cfg)
	watch := flags.Bool("watch", false, "rebuild the site whenever a post changes")
	initSite := flags.Bool("init", false, "write the starter templates and favicon into the source directory, then build")
	versionFlag := flags.Bool("version", false, "Print version information and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("flag parsing failed", slog.Any("err", err))
		os.Exit(1)
	}
	if *versionFlag {
		fmt.Println(buildinfo.Summary("blog-build"))
		os.Exit(0)
	}
	if err := config.Finalize(&cfg); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	logger.Debug("starting blog-build", slog.String("version", buildinfo.Summary("blog-build")))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *initSite {
		if err := scaffold(cfg, logger); err != nil {
			cancel()
			logger.Error("init failed", slog.Any("err", err))
			//nolint:gocritic // exitAfterDefer: cancel() explicitly called before os.Exit
			os.Exit(1)
		}
	}

	opts := exporter.Options{
		PostsDir:  cfg.PostsDir,
		SrcDir:    cfg.SrcDir,
		OutputDir: cfg.OutputDir,
		CacheDir:  cfg.CacheDir,
		BaseURL:   cfg.BaseURL,
		Author:    cfg.Author,
		Caption:   cfg.Caption,
		FontFile:  cfg.FontFile,
	}

	exp := exporter.New(logger)
	if _, err := exp.Export(ctx, opts); err != nil {
		cancel()
		logger.Error("build failed", slog.Any("err", err))
		os.Exit(1)
	}

	if !*watch {
		return
	}
	if err := exp.Watch(ctx, opts); err != nil && !errors.Is(err, context.Canceled) {
		cancel()
		logger.Error("watch failed", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("stopped watching")
}

// scaffold fills the source directory with the starter site and a favicon,
// leaving files that already exist untouched.
func scaffold(cfg config.Config, logger *slog.Logger) error {
	written, err := static.Scaffold(cfg.SrcDir)
	if err != nil {
		return err
	}
	for _, name := range written {
		logger.Info("created starter file", slog.String("path", filepath.Join(cfg.SrcDir, name)))
	}

	favicon := filepath.Join(cfg.SrcDir, "favicon.png")
	if _, err := os.Stat(favicon); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat favicon: %w", err)
	}

	gen, err := ogp.New(ogp.Options{Caption: cfg.Caption, FontFile: cfg.FontFile})
	if err != nil {
		return fmt.Errorf("init ogp generator: %w", err)
	}
	data, err := gen.Favicon(cfg.Author, faviconSize)
	if err != nil {
		return fmt.Errorf("render favicon: %w", err)
	}
	if err := os.WriteFile(favicon, data, 0o644); err != nil { //nolint:gosec // standard file permissions
		return fmt.Errorf("write favicon: %w", err)
	}
	logger.Info("created starter file", slog.String("path", favicon))
	return nil
}
