// Package exporter builds the static blog: post pages, OGP images and the index.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/baseballyama/blog/internal/config"
	"github.com/baseballyama/blog/internal/content"
	"github.com/baseballyama/blog/internal/ogp"
	"github.com/baseballyama/blog/internal/page"
	"github.com/baseballyama/blog/internal/renderer"
)

const (
	indexHTML   = "index.html"
	postsDir    = "posts"
	ogpDir      = "ogp"
	styleFile   = "style.css"
	faviconFile = "favicon.png"
	cnameFile   = "CNAME"
)

// Options configure a build.
type Options struct {
	PostsDir  string
	SrcDir    string
	OutputDir string
	// CacheDir holds generated OGP images across builds. Defaults to SrcDir/ogp.
	CacheDir string
	BaseURL  string
	Author   string
	Caption  string
	FontFile string
}

// Result summarizes a completed build.
type Result struct {
	Posts     int
	Generated int
}

// Exporter renders the posts directory into a static site.
type Exporter struct {
	renderer *renderer.Service
	logger   *slog.Logger
}

// New constructs an exporter instance ready for use.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		renderer: renderer.NewService(logger, renderer.Options{}),
		logger:   logger.With("component", "exporter"),
	}
}

func (o Options) validate() (Options, error) {
	if strings.TrimSpace(o.PostsDir) == "" {
		return o, errors.New("posts directory is required")
	}
	if strings.TrimSpace(o.SrcDir) == "" {
		return o, errors.New("source directory is required")
	}
	if strings.TrimSpace(o.OutputDir) == "" {
		return o, errors.New("output directory is required")
	}
	if strings.TrimSpace(o.CacheDir) == "" {
		o.CacheDir = filepath.Join(o.SrcDir, ogpDir)
	}
	if err := config.CheckOutputDir(o.OutputDir, o.PostsDir, o.SrcDir, o.CacheDir); err != nil {
		return o, err
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	return o, nil
}

// Export runs one full build. The output directory is removed and recreated;
// the OGP cache directory is left intact so existing images are reused.
//
//nolint:gocognit // build steps are sequential and each can fail
func (e *Exporter) Export(ctx context.Context, opts Options) (Result, error) {
	var result Result
	opts, err := opts.validate()
	if err != nil {
		return result, err
	}
	start := time.Now()

	tmpl, err := page.Load(opts.SrcDir)
	if err != nil {
		return result, err
	}

	loader, err := content.NewLoader(opts.PostsDir, e.renderer, e.logger, content.LoaderOptions{DefaultAuthor: opts.Author})
	if err != nil {
		return result, err
	}
	posts, err := loader.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("load posts: %w", err)
	}

	if err := e.prepareOutputDir(opts); err != nil {
		return result, err
	}

	var gen *ogp.Generator
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cached := filepath.Join(opts.CacheDir, post.Slug+".png")
		if _, err := os.Stat(cached); errors.Is(err, os.ErrNotExist) {
			if gen == nil {
				if gen, err = ogp.New(ogp.Options{Caption: opts.Caption, FontFile: opts.FontFile}); err != nil {
					return result, fmt.Errorf("init ogp generator: %w", err)
				}
			}
			if err := gen.Generate(post.Title, cached); err != nil {
				return result, fmt.Errorf("generate ogp for %s: %w", post.Slug, err)
			}
			result.Generated++
			e.logger.Debug("generated ogp image", slog.String("slug", post.Slug))
		} else if err != nil {
			return result, fmt.Errorf("stat ogp cache for %s: %w", post.Slug, err)
		}

		if err := copyFile(cached, filepath.Join(opts.OutputDir, ogpDir, post.Slug+".png")); err != nil {
			return result, fmt.Errorf("copy ogp image for %s: %w", post.Slug, err)
		}

		html := tmpl.RenderPost(post, opts.BaseURL)
		if err := writeFile(filepath.Join(opts.OutputDir, postsDir, post.Slug+".html"), html); err != nil {
			return result, fmt.Errorf("write post %s: %w", post.Slug, err)
		}
		result.Posts++
	}

	if err := writeFile(filepath.Join(opts.OutputDir, indexHTML), tmpl.RenderIndex(posts, opts.BaseURL)); err != nil {
		return result, fmt.Errorf("write index: %w", err)
	}

	if err := e.copyAssets(opts); err != nil {
		return result, err
	}

	e.logger.Info(fmt.Sprintf("Built %d posts", result.Posts),
		slog.Int("ogp_generated", result.Generated),
		slog.String("output", opts.OutputDir),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

func (e *Exporter) prepareOutputDir(opts Options) error {
	if err := os.RemoveAll(opts.OutputDir); err != nil {
		return fmt.Errorf("clean output: %w", err)
	}
	for _, dir := range []string{
		filepath.Join(opts.OutputDir, postsDir),
		filepath.Join(opts.OutputDir, ogpDir),
		opts.CacheDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // standard directory permissions
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (e *Exporter) copyAssets(opts Options) error {
	for _, name := range []string{styleFile, faviconFile} {
		if err := copyFile(filepath.Join(opts.SrcDir, name), filepath.Join(opts.OutputDir, name)); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}

	err := copyFile(filepath.Join(opts.SrcDir, cnameFile), filepath.Join(opts.OutputDir, cnameFile))
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		e.logger.Debug("no CNAME file, skipping")
	default:
		return fmt.Errorf("copy %s: %w", cnameFile, err)
	}
	return nil
}

func writeFile(dest, data string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil { //nolint:gosec // standard directory permissions
		return err
	}
	return os.WriteFile(dest, []byte(data), 0o644) //nolint:gosec // standard file permissions
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from local configuration
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) //nolint:gosec // destination is inside the output directory
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
