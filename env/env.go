// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package env

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=env.go -destination=mocks/mock_reader.go -package=mocks Reader

import "os"

// Prefix is the common prefix of the variables read by this module.
const Prefix = "KRITA_BUNDLE_"

// Reader defines an interface for environment variable access
type Reader interface {
	// LookupEnv returns the value of key and whether it is set.
	LookupEnv(key string) (string, bool)
}

// OSReader implements Reader using the standard os package
type OSReader struct{}

// LookupEnv returns the value of the environment variable named by the key
func (*OSReader) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapReader implements Reader over a fixed set of variables.
type MapReader map[string]string

// LookupEnv returns the value stored under key.
func (m MapReader) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Get returns the value of Prefix+name and whether it is set to a non-empty value.
func Get(r Reader, name string) (string, bool) {
	v, ok := r.LookupEnv(Prefix + name)
	return v, ok && v != ""
}
