// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed data/config.schema.json
var embeddedSchemaFS embed.FS

const schemaFile = "data/config.schema.json"

// validateDocument checks a decoded YAML document against the embedded schema.
func validateDocument(doc map[string]any) error {
	schemaData, err := embeddedSchemaFS.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read embedded schema %s: %w", schemaFile, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	if len(msgs) == 1 {
		return fmt.Errorf("%w: %s", ErrInvalid, msgs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:\n", len(msgs))
	for i, msg := range msgs {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, msg)
	}
	return fmt.Errorf("%w with %s", ErrInvalid, strings.TrimSuffix(b.String(), "\n"))
}
