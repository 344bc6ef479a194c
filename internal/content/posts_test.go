package content_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/baseballyama/blog/internal/content"
	"github.com/baseballyama/blog/internal/renderer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newLoader(t *testing.T, dir string) *content.Loader {
	t.Helper()
	loader, err := content.NewLoader(dir, renderer.NewService(discardLogger(), renderer.Options{}), discardLogger(), content.LoaderOptions{})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	return loader
}

func writePost(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadCreatesMissingDirectory(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "posts")

	posts, err := newLoader(t, dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected posts directory to be created, stat err: %v", err)
	}
}

func TestLoadDerivesMetadata(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writePost(t, dir, "hello.md", "---\ntitle: Hello\ndate: 2024-01-01\n---\n# Hi\n")
	writePost(t, dir, "bare.md", "# Heading\n\nSome *bold* `code` text.\n")
	writePost(t, dir, "custom.md", "---\ndate: 2023-05-01\nauthor: guest\ndescription: Explicit summary\n---\nbody\n")
	writePost(t, dir, "notes.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "drafts.md"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	posts, err := newLoader(t, dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d: %+v", len(posts), posts)
	}

	bySlug := make(map[string]content.Post, len(posts))
	for _, p := range posts {
		bySlug[p.Slug] = p
	}

	hello := bySlug["hello"]
	if hello.Title != "Hello" || hello.Date != "2024-01-01" || hello.Author != content.DefaultAuthor {
		t.Fatalf("unexpected hello metadata: %+v", hello)
	}
	if hello.Description != "Hi" {
		t.Fatalf("expected derived description %q, got %q", "Hi", hello.Description)
	}
	if !strings.Contains(hello.Content, `<h1 id="hi">Hi`) {
		t.Fatalf("expected rendered heading, got %q", hello.Content)
	}

	bare := bySlug["bare"]
	if bare.Title != "bare" || bare.Date != "" {
		t.Fatalf("expected slug title and empty date, got %+v", bare)
	}
	if bare.Description != "Heading  Some  bold   code  text." {
		t.Fatalf("unexpected derived description %q", bare.Description)
	}

	custom := bySlug["custom"]
	if custom.Author != "guest" || custom.Description != "Explicit summary" || custom.Title != "custom" {
		t.Fatalf("unexpected custom metadata: %+v", custom)
	}

	if posts[0].Slug != "hello" || posts[1].Slug != "custom" || posts[2].Slug != "bare" {
		t.Fatalf("unexpected order: %s, %s, %s", posts[0].Slug, posts[1].Slug, posts[2].Slug)
	}
}

func TestLoadUsesConfiguredDefaultAuthor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writePost(t, dir, "a.md", "body")

	loader, err := content.NewLoader(dir, renderer.NewService(discardLogger(), renderer.Options{}), discardLogger(), content.LoaderOptions{DefaultAuthor: "someone"})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	posts, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if posts[0].Author != "someone" {
		t.Fatalf("expected configured author, got %q", posts[0].Author)
	}
}

func TestLoadStableForEqualDates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		writePost(t, dir, name, "---\ndate: 2024-02-02\n---\nbody\n")
	}
	writePost(t, dir, "z.md", "---\ndate: 2024-03-03\n---\nbody\n")

	posts, err := newLoader(t, dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	got := make([]string, 0, len(posts))
	for _, p := range posts {
		got = append(got, p.Slug)
	}
	if strings.Join(got, ",") != "z,a,b,c" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestLoadHonorsCanceledContext(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writePost(t, dir, "a.md", "body")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newLoader(t, dir).Load(ctx); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("あ", 130)
	if got := content.Summarize(long); got != strings.Repeat("あ", 120) {
		t.Fatalf("expected 120 runes, got %d", len([]rune(got)))
	}
	if got := content.Summarize("\n\n## Title\n"); got != "Title" {
		t.Fatalf("expected trimmed summary, got %q", got)
	}
}

var sampleDates = []string{"", "2023-12-31", "2024-01-01", "2024-01-02", "2024-10-10"}

func TestSortPostsProperties(t *testing.T) {
	t.Parallel()
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(777)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("dates descend and equal dates keep input order", prop.ForAll(
		func(picks []int) bool {
			posts := make([]content.Post, len(picks))
			for i, p := range picks {
				posts[i] = content.Post{Slug: string(rune('a' + i%26)), Date: sampleDates[p], Title: strings.Repeat("x", i)}
			}
			content.SortPosts(posts)

			for i := 1; i < len(posts); i++ {
				prev, cur := posts[i-1], posts[i]
				if prev.Date < cur.Date {
					return false
				}
				// Title length encodes the original index.
				if prev.Date == cur.Date && len(prev.Title) > len(cur.Title) {
					return false
				}
			}
			return len(posts) == len(picks)
		},
		gen.SliceOf(gen.IntRange(0, len(sampleDates)-1)),
	))

	properties.TestingRun(t)
}
