// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package talks reads talk records out of markdown files with front matter.
package talks

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const (
	frontMatterDelimiter = "---"
	locationKey          = "location:"
	maxLineSize          = 1 << 20
)

// ReadError is returned when a talk file can't be opened or read. It is kept
// apart from the "no location" outcome so callers can skip the file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading talk file %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ExtractLocation returns the value of the `location:` field found in the
// front matter of the file at path. The boolean is false when the file has no
// front matter, no location field or an empty one.
func ExtractLocation(path string) (string, bool, error) {
	f, err := os.Open(path) // #nosec G304 - paths come from the talks directory listing
	if err != nil {
		return "", false, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	inFrontMatter := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == frontMatterDelimiter {
			if inFrontMatter {
				break
			}

			inFrontMatter = true

			continue
		}

		if !inFrontMatter || !strings.HasPrefix(line, locationKey) {
			continue
		}

		value := strings.Trim(strings.TrimSpace(line[len(locationKey):]), `"'`)
		if value == "" {
			return "", false, nil
		}

		return value, true, nil
	}

	if err := scanner.Err(); err != nil {
		return "", false, &ReadError{Path: path, Err: err}
	}

	return "", false, nil
}
