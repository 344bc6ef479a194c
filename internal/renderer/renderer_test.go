package renderer_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/baseballyama/blog/internal/renderer"
)

func newTestService() *renderer.Service {
	return renderer.NewService(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})), renderer.Options{})
}

func TestRenderStandardMarkdown(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	content := []byte("# Hello World\n\n" +
		"Some *emphasis*, **strong** and `code` text.\n\n" +
		"- first\n" +
		"- second\n\n" +
		"[site](https://example.com)\n\n" +
		"```go\n" +
		"package main\n" +
		"```\n")

	doc, err := svc.Render(context.Background(), "posts/hello.md", time.Unix(1_000, 0), content)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	html := doc.HTML
	for _, want := range []string{
		`<h1 id="hello-world">Hello World`,
		"<em>emphasis</em>",
		"<strong>strong</strong>",
		"<code>code</code>",
		"<li>first</li>",
		`<a href="https://example.com">site</a>`,
		"package",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in rendered HTML, got %s", want, html)
		}
	}
	if !strings.Contains(html, `href="#hello-world"`) {
		t.Fatalf("expected heading anchor link, got %s", html)
	}
	if strings.Contains(html, `class="chroma"`) {
		t.Fatalf("expected inline highlight styles rather than classes, got %s", html)
	}
}

func TestRenderRewritesPostLinks(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	content := []byte("[next](next-post.md) [section](next-post.md#intro) [ext](https://example.com/readme.md) [anchor](#top)\n")
	doc, err := svc.Render(context.Background(), "posts/links.md", time.Time{}, content)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	for _, want := range []string{
		`href="next-post.html"`,
		`href="next-post.html#intro"`,
		`href="https://example.com/readme.md"`,
		`href="#top"`,
	} {
		if !strings.Contains(doc.HTML, want) {
			t.Fatalf("expected %q in %s", want, doc.HTML)
		}
	}
}

func TestRenderPassesRawHTML(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	doc, err := svc.Render(context.Background(), "posts/raw.md", time.Time{}, []byte("<div class=\"note\">hi</div>\n"))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(doc.HTML, `<div class="note">hi</div>`) {
		t.Fatalf("expected raw HTML passthrough, got %s", doc.HTML)
	}
}

func TestRenderCaching(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	ctx := context.Background()
	path := "posts/cache.md"
	modTime := time.Unix(2_000, 0)

	doc1, err := svc.Render(ctx, path, modTime, []byte("# First"))
	if err != nil {
		t.Fatalf("first render: %v", err)
	}

	doc2, err := svc.Render(ctx, path, modTime, []byte("# Furst"))
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if doc2.HTML != doc1.HTML {
		t.Fatalf("expected cached HTML, got different output")
	}

	if !svc.Invalidate(path) {
		t.Fatalf("expected Invalidate to report a cached entry")
	}
	if svc.Invalidate(path) {
		t.Fatalf("second Invalidate should find nothing")
	}
	doc3, err := svc.Render(ctx, path, modTime, []byte("# Second"))
	if err != nil {
		t.Fatalf("third render: %v", err)
	}
	if !strings.Contains(doc3.HTML, "Second") {
		t.Fatalf("expected invalidated entry to re-render, got %s", doc3.HTML)
	}

	doc4, err := svc.Render(ctx, path, modTime.Add(time.Second), []byte("# Third"))
	if err != nil {
		t.Fatalf("fourth render: %v", err)
	}
	if !strings.Contains(doc4.HTML, "Third") {
		t.Fatalf("expected new HTML after mod time change, got %s", doc4.HTML)
	}
}

func TestRenderCacheDetectsSizeChangeWithSameModTime(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	ctx := context.Background()
	path := "posts/same-mtime.md"
	modTime := time.Unix(3_000, 0)

	if _, err := svc.Render(ctx, path, modTime, []byte("# Draft")); err != nil {
		t.Fatalf("first render: %v", err)
	}
	doc, err := svc.Render(ctx, path, modTime, []byte("# Draft, revised"))
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !strings.Contains(doc.HTML, "revised") {
		t.Fatalf("expected edited content to re-render within the same mtime, got %s", doc.HTML)
	}
}

func TestRenderHonorsCanceledContext(t *testing.T) {
	t.Parallel()
	svc := newTestService()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Render(ctx, "posts/x.md", time.Time{}, []byte("# x")); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
