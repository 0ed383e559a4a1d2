// Package filter decides which enumerated entries take part in an export.
//
// An entry is eligible when its name ends with an allowed extension and it is
// not ignored. Ignoring is deliberately coarse: a token excludes an entry when
// it appears anywhere in the root-relative path, or when it equals the base
// name. A file called "my-dist-notes.md" is therefore excluded by the "dist"
// token.
package filter

import (
	"strings"

	"github.com/pders01/stackpack/internal/models"
)

// Rules holds the ignore tokens and allowed extensions
type Rules struct {
	IgnoreList        []string `json:"ignore" yaml:"ignore" toml:"ignore"`
	AllowedExtensions []string `json:"extensions" yaml:"extensions" toml:"extensions"`
}

// DefaultRules returns the stock configuration for web projects
func DefaultRules() Rules {
	return Rules{
		IgnoreList: []string{
			// folders
			"node_modules",
			"dist",
			".git",
			// files
			"package-lock.json",
		},
		AllowedExtensions: []string{
			".html",
			".css",
			".js",
			".md",
			".jsx",
			".cjs",
			".babelrc",
			".gitignore",
			".json",
		},
	}
}

// IgnoredPath reports whether any ignore token occurs in path
func (r Rules) IgnoredPath(path string) bool {
	for _, token := range r.IgnoreList {
		if token == "" {
			continue
		}
		if strings.Contains(path, token) {
			return true
		}
	}
	return false
}

// Ignored reports whether the entry is excluded by the ignore list
func (r Rules) Ignored(e models.Entry) bool {
	if r.IgnoredPath(e.RootRelativePath) {
		return true
	}
	for _, token := range r.IgnoreList {
		if token != "" && e.Name == token {
			return true
		}
	}
	return false
}

// Allowed reports whether the entry name ends with an allowed extension
func (r Rules) Allowed(e models.Entry) bool {
	for _, ext := range r.AllowedExtensions {
		if ext == "" {
			continue
		}
		if strings.HasSuffix(e.Name, ext) {
			return true
		}
	}
	return false
}

// Eligible is Allowed and not Ignored
func (r Rules) Eligible(e models.Entry) bool {
	return r.Allowed(e) && !r.Ignored(e)
}

// Apply returns the eligible entries in their original order
func Apply(entries []models.Entry, rules Rules) []models.Entry {
	filtered := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if rules.Eligible(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
