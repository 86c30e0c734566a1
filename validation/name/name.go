// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package name

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MaxLength bounds bundle names and tags.
const MaxLength = 255

var unsafeSegmentRegex = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)

// ValidateBundleName validates that a bundle name can be used as a single
// directory name. It disallows empty names, null bytes, path separators,
// dot segments and leading or trailing whitespace.
func ValidateBundleName(name string) error {
	if err := validateCommon("bundle name", name); err != nil {
		return err
	}

	if name == "." || name == ".." {
		return fmt.Errorf("bundle name cannot be a dot segment: %q", name)
	}

	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("bundle name cannot contain path separators: %q", name)
	}

	if unsafeSegmentRegex.MatchString(name) {
		return fmt.Errorf("bundle name contains characters not allowed in file names: %q", name)
	}

	return nil
}

// ValidateTag validates a tag name.
func ValidateTag(tag string) error {
	if err := validateCommon("tag", tag); err != nil {
		return err
	}

	if strings.IndexFunc(tag, unicode.IsControl) >= 0 {
		return fmt.Errorf("tag cannot contain control characters: %q", tag)
	}

	return nil
}

// SanitizeSegment replaces characters that cannot appear in a file name with
// underscores. The result is not validated.
func SanitizeSegment(s string) string {
	s = unsafeSegmentRegex.ReplaceAllString(s, "_")
	if s == "." || s == ".." {
		return strings.Repeat("_", len(s))
	}
	return s
}

func validateCommon(kind, s string) error {
	if s == "" || strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s cannot be empty or consist only of whitespace", kind)
	}

	// Check for null bytes explicitly
	if strings.Contains(s, "\x00") {
		return fmt.Errorf("%s cannot contain null bytes", kind)
	}

	if len(s) > MaxLength {
		return fmt.Errorf("%s exceeds %d bytes", kind, MaxLength)
	}

	if strings.TrimSpace(s) != s {
		return fmt.Errorf("%s cannot have leading or trailing whitespace: %q", kind, s)
	}

	return nil
}
