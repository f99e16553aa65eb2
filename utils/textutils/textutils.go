// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides small string helpers shared by the commands.
package textutils

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeSpace collapses runs of whitespace into a single space, trims the
// result and puts it in Unicode NFC form. Applying it twice is a no-op.
func NormalizeSpace(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// FormatInt formats an integer with commas for human readability.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // First character is the - sign (not a digit)
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}
