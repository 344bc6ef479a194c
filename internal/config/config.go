// Package config manages application configuration from environment variables and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const envPrefix = "BLOG_"

// Config holds runtime configuration for the build and serve tools.
type Config struct {
	RootDir   string
	PostsDir  string
	SrcDir    string
	OutputDir string
	CacheDir  string
	BaseURL   string
	Author    string
	Caption   string
	FontFile  string
	Port      int
	Verbose   bool
}

// Default returns ready-to-use defaults prior to env/flag overrides.
func Default() Config {
	return Config{
		RootDir:   ".",
		PostsDir:  "posts",
		SrcDir:    "src",
		OutputDir: "docs",
		BaseURL:   "https://blog.baseballyama.com",
		Author:    "baseballyama",
		Caption:   "baseballyama's Blog",
		Port:      3000,
	}
}

// RegisterFlags attaches the flags shared by every tool to the provided FlagSet.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.RootDir, "root", "r", cfg.RootDir, "project root; relative directories resolve against it")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "output directory for the generated site")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable verbose logging")
}

// RegisterBuildFlags attaches build-only flags.
func RegisterBuildFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.PostsDir, "posts", cfg.PostsDir, "directory containing markdown posts")
	fs.StringVar(&cfg.SrcDir, "src", cfg.SrcDir, "directory containing templates and static assets")
	fs.StringVar(&cfg.CacheDir, "ogp-cache", cfg.CacheDir, "directory caching generated OGP images (default <src>/ogp)")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "absolute public base URL of the site")
	fs.StringVar(&cfg.Author, "author", cfg.Author, "author used when a post does not declare one")
	fs.StringVar(&cfg.Caption, "caption", cfg.Caption, "footer caption drawn on OGP images")
	fs.StringVar(&cfg.FontFile, "font", cfg.FontFile, "TrueType/OpenType font for OGP text (default Go Bold)")
}

// RegisterServeFlags attaches serve-only flags.
func RegisterServeFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to bind the preview server (0 = auto-assign)")
}

// ApplyEnvOverrides reads supported environment variables and overrides cfg in place.
func ApplyEnvOverrides(cfg *Config) {
	applyStringEnv("ROOT", func(v string) { cfg.RootDir = v })
	applyStringEnv("POSTS", func(v string) { cfg.PostsDir = v })
	applyStringEnv("SRC", func(v string) { cfg.SrcDir = v })
	applyStringEnv("OUT", func(v string) { cfg.OutputDir = v })
	applyStringEnv("OGP_CACHE", func(v string) { cfg.CacheDir = v })
	applyStringEnv("BASE_URL", func(v string) { cfg.BaseURL = v })
	applyStringEnv("AUTHOR", func(v string) { cfg.Author = v })
	applyStringEnv("CAPTION", func(v string) { cfg.Caption = v })
	applyStringEnv("FONT", func(v string) { cfg.FontFile = v })
	applyIntEnv("PORT", func(v int) { cfg.Port = v })
	applyBoolEnv("VERBOSE", func(v bool) { cfg.Verbose = v })
}

func applyStringEnv(key string, apply func(string)) {
	if raw, ok := lookupNonEmpty(key); ok {
		apply(raw)
	}
}

func applyIntEnv(key string, apply func(int)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.Atoi(raw); err == nil {
			apply(value)
		}
	}
}

func applyBoolEnv(key string, apply func(bool)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.ParseBool(raw); err == nil {
			apply(value)
		}
	}
}

func lookupNonEmpty(key string) (string, bool) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	return value, true
}

// Finalize validates values and resolves every directory to an absolute path.
// Relative directories are resolved against RootDir.
func Finalize(cfg *Config) error {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return fmt.Errorf("resolve root directory: %w", err)
	}
	cfg.RootDir = root

	// Allow port 0 for dynamic allocation, otherwise validate range
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	if cfg.PostsDir == "" {
		cfg.PostsDir = "posts"
	}
	if cfg.SrcDir == "" {
		cfg.SrcDir = "src"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "docs"
	}
	cfg.PostsDir = resolve(root, cfg.PostsDir)
	cfg.SrcDir = resolve(root, cfg.SrcDir)
	cfg.OutputDir = resolve(root, cfg.OutputDir)
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.SrcDir, "ogp")
	} else {
		cfg.CacheDir = resolve(root, cfg.CacheDir)
	}
	if cfg.FontFile != "" {
		cfg.FontFile = resolve(root, cfg.FontFile)
	}

	if err := CheckOutputDir(cfg.OutputDir, root, cfg.SrcDir, cfg.PostsDir, cfg.CacheDir); err != nil {
		return err
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	if strings.TrimSpace(cfg.Author) == "" {
		cfg.Author = "baseballyama"
	}

	return nil
}

// CheckOutputDir rejects an output directory that equals or contains any of
// the protected directories, since a build removes the output directory first.
func CheckOutputDir(out string, protected ...string) error {
	out, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	for _, dir := range protected {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", dir, err)
		}
		if within(out, abs) {
			return fmt.Errorf("output directory %s would remove %s", out, abs)
		}
	}
	return nil
}

// within reports whether path is dir itself or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}
