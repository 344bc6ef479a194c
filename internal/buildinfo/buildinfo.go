// Package buildinfo provides build version and metadata information.
package buildinfo

import "runtime/debug"

// Version metadata is injected at build time via ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Summary returns a human-readable version line for the named tool.
// When no commit was injected, the VCS revision recorded by the Go toolchain is used.
func Summary(tool string) string {
	version := Version
	if version == "" {
		version = "dev"
	}
	commit, date := Commit, Date
	if commit == "" {
		commit, date = vcsRevision(date)
	}

	out := version
	switch {
	case commit != "" && date != "":
		out += " (" + commit + " " + date + ")"
	case commit != "":
		out += " (" + commit + ")"
	case date != "":
		out += " (" + date + ")"
	}
	if tool != "" {
		out = tool + " " + out
	}
	return out
}

func vcsRevision(date string) (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", date
	}
	var rev string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
		case "vcs.time":
			if date == "" {
				date = s.Value
			}
		}
	}
	return rev, date
}
