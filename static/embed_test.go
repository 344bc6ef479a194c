package static

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestStarterTemplatesUsePlaceholders(t *testing.T) {
	t.Parallel()

	post, err := fs.ReadFile(FS(), "template.html")
	if err != nil {
		t.Fatalf("read post template: %v", err)
	}
	for _, key := range []string{"title", "date", "author", "description", "content", "slug", "base-url"} {
		if !strings.Contains(string(post), "{{"+key+"}}") {
			t.Fatalf("post template is missing {{%s}}", key)
		}
	}
	if !strings.Contains(string(post), `content="{{base-url}}/ogp/{{slug}}.png"`) {
		t.Fatalf("post template should reference the OGP image")
	}

	index, err := fs.ReadFile(FS(), "index.html")
	if err != nil {
		t.Fatalf("read index template: %v", err)
	}
	if !strings.Contains(string(index), "{{post-list}}") {
		t.Fatalf("index template is missing {{post-list}}")
	}

	if _, err := fs.Stat(FS(), "style.css"); err != nil {
		t.Fatalf("starter stylesheet missing: %v", err)
	}
}

func TestScaffoldKeepsExistingFiles(t *testing.T) {
	t.Parallel()
	dest := filepath.Join(t.TempDir(), "src")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	custom := filepath.Join(dest, "style.css")
	if err := os.WriteFile(custom, []byte("custom"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	written, err := Scaffold(dest)
	if err != nil {
		t.Fatalf("Scaffold returned error: %v", err)
	}
	slices.Sort(written)
	if !slices.Equal(written, []string{"index.html", "template.html"}) {
		t.Fatalf("unexpected written files %v", written)
	}
	if data, _ := os.ReadFile(custom); string(data) != "custom" {
		t.Fatalf("existing file was overwritten: %q", data)
	}

	again, err := Scaffold(dest)
	if err != nil {
		t.Fatalf("second Scaffold returned error: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second Scaffold should write nothing, wrote %v", again)
	}
}
