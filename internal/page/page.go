// Package page fills the post and index HTML templates with post data.
package page

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/baseballyama/blog/internal/content"
)

const (
	startTag = "{{"
	endTag   = "}}"

	// PostTemplateFile and IndexTemplateFile are read from the source directory.
	PostTemplateFile  = "template.html"
	IndexTemplateFile = "index.html"
)

// Render replaces every {{name}} token whose name is present in vars.
// Tokens without a matching variable are left as they are and substituted
// values are never scanned for further tokens.
func Render(tmpl string, vars map[string]string) string {
	return fasttemplate.ExecuteFuncString(tmpl, startTag, endTag, func(w io.Writer, tag string) (int, error) {
		return io.WriteString(w, substitute(tag, vars))
	})
}

// substitute resolves the text between a start tag and the first end tag
// after it. That text may itself contain start tags ("{{{title}}}" yields
// "{title"), so the leftmost start tag followed by a known name wins and
// everything before it is kept literally.
func substitute(tag string, vars map[string]string) string {
	raw := startTag + tag
	for i := 0; i+len(startTag) <= len(raw); i++ {
		if !strings.HasPrefix(raw[i:], startTag) {
			continue
		}
		if v, ok := vars[raw[i+len(startTag):]]; ok {
			return raw[:i] + v
		}
	}
	return raw + endTag
}

// Templates holds the raw post and index templates for one build.
type Templates struct {
	Post  string
	Index string
}

// Load reads both templates from srcDir.
func Load(srcDir string) (*Templates, error) {
	post, err := os.ReadFile(filepath.Join(srcDir, PostTemplateFile)) //nolint:gosec // fixed file name under the configured source directory
	if err != nil {
		return nil, fmt.Errorf("read post template: %w", err)
	}
	index, err := os.ReadFile(filepath.Join(srcDir, IndexTemplateFile)) //nolint:gosec // fixed file name under the configured source directory
	if err != nil {
		return nil, fmt.Errorf("read index template: %w", err)
	}
	return &Templates{Post: string(post), Index: string(index)}, nil
}

// PostVars returns the placeholder values for a post page. Text taken from
// frontmatter is HTML-escaped; the rendered content is inserted as-is.
func PostVars(post content.Post, baseURL string) map[string]string {
	return map[string]string{
		"title":       html.EscapeString(post.Title),
		"date":        html.EscapeString(post.Date),
		"author":      html.EscapeString(post.Author),
		"description": html.EscapeString(post.Description),
		"content":     post.Content,
		"slug":        html.EscapeString(post.Slug),
		"base-url":    baseURL,
	}
}

// RenderPost renders the post page for a single post.
func (t *Templates) RenderPost(post content.Post, baseURL string) string {
	return Render(t.Post, PostVars(post, baseURL))
}

// RenderIndex renders the index page listing posts in the given order.
func (t *Templates) RenderIndex(posts []content.Post, baseURL string) string {
	return Render(t.Index, map[string]string{
		"post-list": PostList(posts, baseURL),
		"base-url":  baseURL,
	})
}

// PostURL returns the absolute URL of a post page.
func PostURL(baseURL, slug string) string {
	return baseURL + "/posts/" + slug + ".html"
}

// PostList builds the index listing: one link per post showing its title and date.
func PostList(posts []content.Post, baseURL string) string {
	items := make([]string, 0, len(posts))
	for _, p := range posts {
		items = append(items, fmt.Sprintf(
			`<li><a href="%s"><div class="post-title">%s</div><div class="post-date">%s</div></a></li>`,
			html.EscapeString(PostURL(baseURL, p.Slug)),
			html.EscapeString(p.Title),
			html.EscapeString(p.Date),
		))
	}
	return `<ul class="post-list">` + strings.Join(items, "\n") + `</ul>`
}
