// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package talks

import (
	"fmt"
	"os"

	"github.com/adrg/frontmatter"
)

// Metadata holds the optional descriptive fields of a talk.
type Metadata struct {
	Title string `yaml:"title" toml:"title"`
	Venue string `yaml:"venue" toml:"venue"`
	Date  string `yaml:"date" toml:"date"`
}

// ReadMetadata decodes the descriptive fields of the talk front matter. It is
// best effort: a malformed block yields empty metadata and an error.
func ReadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path) // #nosec G304 - paths come from the talks directory listing
	if err != nil {
		return Metadata{}, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	var meta Metadata
	if _, err := frontmatter.Parse(f, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parsing front matter: %w", err)
	}

	return meta, nil
}
