// Package renderer converts markdown post bodies to HTML fragments with caching and syntax highlighting.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"go.abhg.dev/goldmark/anchor"
)

// DefaultStyle is the chroma style used for fenced code blocks.
const DefaultStyle = "github"

// Document represents a rendered markdown body.
type Document struct {
	HTML string
}

type cacheEntry struct {
	modTime time.Time
	size    int
	doc     Document
}

type cacheKey string

// Options configure the markdown pipeline.
type Options struct {
	// Style names the chroma style for code highlighting. Empty selects DefaultStyle.
	Style string
}

// Service renders markdown into HTML with caching.
// Rendered documents are cached by path and modification time so watch-mode
// rebuilds only re-render posts that changed on disk.
type Service struct {
	md     goldmark.Markdown
	logger *slog.Logger
	cache  sync.Map // map[cacheKey]cacheEntry
}

// postLinkTransformer rewrites relative links to sibling markdown posts into their generated pages.
type postLinkTransformer struct{}

func (t *postLinkTransformer) Transform(node *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			if dest, ok := rewritePostLink(string(link.Destination)); ok {
				link.Destination = []byte(dest)
			}
		}
		return ast.WalkContinue, nil
	})
}

func rewritePostLink(dest string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") || isExternalLink(dest) {
		return "", false
	}
	target, fragment, _ := strings.Cut(dest, "#")
	if !strings.HasSuffix(target, ".md") {
		return "", false
	}
	out := strings.TrimSuffix(target, ".md") + ".html"
	if fragment != "" {
		out += "#" + fragment
	}
	return out, true
}

func isExternalLink(dest string) bool {
	return strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:")
}

// NewService constructs a markdown renderer.
// The pipeline includes:
//   - GitHub-flavored markdown extensions (tables, strikethrough, task lists, autolinks)
//   - Syntax highlighting with inline chroma styles, so pages need no extra stylesheet
//   - Heading IDs with a trailing anchor link
//   - Raw HTML passthrough (posts are authored locally and trusted)
//   - Relative links to other posts (foo.md) rewritten to their pages (foo.html)
//
// If logger is nil, the default slog logger is used.
func NewService(logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	style := strings.TrimSpace(opts.Style)
	if style == "" {
		style = DefaultStyle
	}

	highlight := highlighting.NewHighlighting(
		highlighting.WithStyle(style),
		highlighting.WithFormatOptions(
			html.WithLineNumbers(false),
			html.WithClasses(false),
		),
	)

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlight,
			&anchor.Extender{
				Position: anchor.After,
			},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&postLinkTransformer{}, 100),
			),
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithUnsafe(),
		),
	)

	return &Service{
		md:     md,
		logger: logger.With("component", "renderer"),
	}
}

// Render converts markdown content to HTML, caching results by path,
// modification time and content length. A zero modTime disables the cache
// lookup for that call.
func (s *Service) Render(ctx context.Context, path string, modTime time.Time, content []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	key := cacheKey(path)

	if entry, ok := s.cache.Load(key); ok {
		if cached, ok := entry.(cacheEntry); ok {
			if !cached.modTime.IsZero() && modTime.Equal(cached.modTime) && cached.size == len(content) {
				s.logger.Debug("render cache hit", slog.String("path", path))
				return cached.doc, nil
			}
		}
	}

	buf := bytes.NewBuffer(nil)
	if err := s.md.Convert(content, buf); err != nil {
		return Document{}, fmt.Errorf("render markdown: %w", err)
	}

	doc := Document{HTML: buf.String()}

	s.cache.Store(key, cacheEntry{modTime: modTime, size: len(content), doc: doc})
	return doc, nil
}

// Invalidate removes the cached entry for the given path and reports whether
// one was present.
func (s *Service) Invalidate(path string) bool {
	_, ok := s.cache.LoadAndDelete(cacheKey(path))
	return ok
}
