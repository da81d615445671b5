// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobtable

import "regexp"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ValidName reports whether s can be used as a job name or summary prefix.
// Names become file name stems, so path separators and the relative
// directory names are rejected.
func ValidName(s string) bool {
	return s != "." && s != ".." && namePattern.MatchString(s)
}

// CheckName returns an *InvalidNameError when s is not a valid name.
func CheckName(s string) error {
	if !ValidName(s) {
		return &InvalidNameError{Name: s}
	}

	return nil
}
