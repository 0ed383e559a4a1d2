package models

import (
	"path"
	"strings"
)

// Entry is one file as seen by the pipeline, before its content is read
type Entry struct {
	Name             string `json:"name" yaml:"name"`
	RootRelativePath string `json:"relative_path" yaml:"relative_path"`
	Size             int64  `json:"size" yaml:"size"`
	MIMEType         string `json:"type" yaml:"type"`

	// SourcePath locates the file for the provider that produced the entry.
	SourcePath string `json:"-" yaml:"-"`
}

// Ext returns the lower-cased extension of the entry name, or the full name
// for dotfiles like ".gitignore"
func (e Entry) Ext() string {
	return strings.ToLower(path.Ext(e.Name))
}
