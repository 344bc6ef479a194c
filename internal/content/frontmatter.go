package content

import (
	"regexp"
	"strings"
)

// frontmatterPattern requires the whole document to be a "---" header followed by a body.
// Leading whitespace or CRLF line endings intentionally fail to match.
var frontmatterPattern = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n(.*)\z`)

// ParseFrontmatter splits raw into its header metadata and markdown body.
// Header lines are "key: value" pairs split on the first colon; keys and values
// are trimmed and kept as strings. Without a well-formed header the metadata is
// empty and body is raw unchanged.
func ParseFrontmatter(raw string) (map[string]string, string) {
	meta := make(map[string]string)
	match := frontmatterPattern.FindStringSubmatch(raw)
	if match == nil {
		return meta, raw
	}

	for _, line := range strings.Split(match[1], "\n") {
		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}
		meta[key] = strings.TrimSpace(line[idx+1:])
	}
	return meta, match[2]
}
