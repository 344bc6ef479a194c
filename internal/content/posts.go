// Package content loads markdown posts from disk and watches them for changes.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/baseballyama/blog/internal/renderer"
)

const (
	postExt = ".md"

	// DefaultAuthor is used when neither the post nor the loader options name an author.
	DefaultAuthor = "baseballyama"

	descriptionLimit = 120
)

// Post is a single rendered blog entry. Posts exist only for the duration of a build.
type Post struct {
	Slug        string
	Title       string
	Date        string
	Author      string
	Description string
	Content     string
}

// LoaderOptions configures post defaults.
type LoaderOptions struct {
	DefaultAuthor string
}

// Loader reads posts from a single directory.
type Loader struct {
	renderer      *renderer.Service
	logger        *slog.Logger
	dir           string
	defaultAuthor string
}

// NewLoader constructs a loader for markdown files in dir.
func NewLoader(dir string, rendererSvc *renderer.Service, logger *slog.Logger, opts LoaderOptions) (*Loader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("posts directory must be provided")
	}
	if rendererSvc == nil {
		return nil, errors.New("renderer service must be provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	author := strings.TrimSpace(opts.DefaultAuthor)
	if author == "" {
		author = DefaultAuthor
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve posts directory: %w", err)
	}

	return &Loader{
		renderer:      rendererSvc,
		logger:        logger.With("component", "posts"),
		dir:           absDir,
		defaultAuthor: author,
	}, nil
}

// Load reads, renders and sorts every post. A missing posts directory is
// created and yields no posts. Posts are ordered by date descending; equal
// dates keep directory listing order.
func (l *Loader) Load(ctx context.Context) ([]Post, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read posts directory: %w", err)
		}
		if err := os.MkdirAll(l.dir, 0o755); err != nil { //nolint:gosec // standard directory permissions
			return nil, fmt.Errorf("create posts directory: %w", err)
		}
		l.logger.Info("created empty posts directory", slog.String("dir", l.dir))
		return []Post{}, nil
	}

	posts := make([]Post, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), postExt) {
			continue
		}
		post, err := l.loadPost(ctx, entry)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	SortPosts(posts)
	return posts, nil
}

func (l *Loader) loadPost(ctx context.Context, entry os.DirEntry) (Post, error) {
	name := entry.Name()
	path := filepath.Join(l.dir, name)

	info, err := entry.Info()
	if err != nil {
		return Post{}, fmt.Errorf("stat %s: %w", name, err)
	}
	raw, err := os.ReadFile(path) //nolint:gosec // path is a direct child of the posts directory
	if err != nil {
		return Post{}, fmt.Errorf("read %s: %w", name, err)
	}

	meta, body := ParseFrontmatter(string(raw))
	doc, err := l.renderer.Render(ctx, path, info.ModTime(), []byte(body))
	if err != nil {
		return Post{}, fmt.Errorf("render %s: %w", name, err)
	}

	slug := strings.TrimSuffix(name, postExt)
	return Post{
		Slug:        slug,
		Title:       firstNonEmpty(meta["title"], slug),
		Date:        meta["date"],
		Author:      firstNonEmpty(meta["author"], l.defaultAuthor),
		Description: firstNonEmpty(meta["description"], Summarize(body)),
		Content:     doc.HTML,
	}, nil
}

// SortPosts orders posts by date descending using plain string comparison.
// The sort is stable, so posts sharing a date keep their relative order.
func SortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date > posts[j].Date
	})
}

var markupReplacer = strings.NewReplacer("#", " ", "*", " ", "`", " ", "\n", " ")

// Summarize derives a description from a markdown body: markup characters
// become spaces and the result is cut to 120 characters and trimmed.
func Summarize(body string) string {
	text := markupReplacer.Replace(body)
	if utf8.RuneCountInString(text) > descriptionLimit {
		text = string([]rune(text)[:descriptionLimit])
	}
	return strings.TrimSpace(text)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
