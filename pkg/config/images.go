package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/matzehuels/zinefold/pkg/errors"
)

// ResolveImages expands the images list into file paths in job order.
//
// Relative entries resolve against the directory of the job file. Entries
// containing glob metacharacters expand to their sorted matches, skipping
// directories; a glob without matches is an error. Every file is sniffed by
// content and must be an image.
func (c *Config) ResolveImages() ([]string, error) {
	base := ""
	if c.Path != "" {
		base = filepath.Dir(c.Path)
	}

	var out []string
	for _, entry := range c.Images {
		pattern := entry
		if !filepath.IsAbs(pattern) && base != "" {
			pattern = filepath.Join(base, pattern)
		}

		if !isGlob(entry) {
			if _, err := os.Stat(pattern); err != nil {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", entry)
			}
			out = append(out, pattern)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "image pattern %s", entry)
		}
		sort.Strings(matches)
		n := 0
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				out = append(out, m)
				n++
			}
		}
		if n == 0 {
			return nil, errors.New(errors.ErrCodeFileNotFound, "image pattern %s matched no files", entry)
		}
	}

	for _, p := range out {
		if err := sniffImage(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func sniffImage(path string) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return errors.New(errors.ErrCodeInvalidConfig, "%s is not an image (detected %s)", path, mt.String())
	}
	return nil
}
