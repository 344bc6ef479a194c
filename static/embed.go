// Package static embeds the starter site: post and index templates and the stylesheet.
package static

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed site/*
var assets embed.FS

const siteRoot = "site"

// FS exposes the embedded starter site rooted at its files.
func FS() fs.FS {
	sub, err := fs.Sub(assets, siteRoot)
	if err != nil {
		panic(err)
	}
	return sub
}

// Scaffold writes every starter file into dest that does not exist there yet.
// Existing files are never overwritten. It returns the names that were written.
func Scaffold(dest string) ([]string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil { //nolint:gosec // standard directory permissions
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}

	var written []string
	err := fs.WalkDir(FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		target := filepath.Join(dest, filepath.FromSlash(path))
		if _, err := os.Stat(target); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		data, err := fs.ReadFile(FS(), path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil { //nolint:gosec // standard file permissions
			return err
		}
		written = append(written, path)
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("scaffold starter site: %w", err)
	}
	return written, nil
}
