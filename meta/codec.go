// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// FileName is the name of the metadata entry inside a bundle archive.
const FileName = "meta.xml"

// maxDocumentSize limits the metadata document to prevent XML parsing attacks.
const maxDocumentSize = 1 * 1024 * 1024

type xmlPackage struct {
	XMLName xml.Name     `xml:"package"`
	Fields  []xmlElement `xml:",any"`
}

type xmlElement struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Parse reads a metadata document. Malformed input yields a *ParseError.
// Repeated singleton fields keep the last value.
func Parse(r io.Reader) (*Metadata, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, newParseError("reading document", err)
	}
	if len(data) > maxDocumentSize {
		return nil, newParseError(fmt.Sprintf("document exceeds %d bytes", maxDocumentSize), nil)
	}
	return ParseBytes(data)
}

// ParseBytes parses a metadata document held in memory.
func ParseBytes(data []byte) (*Metadata, error) {
	var doc xmlPackage
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, newParseError("invalid XML", err)
	}

	m := New()
	for _, el := range doc.Fields {
		field := el.XMLName.Local
		if el.XMLName.Space != "" {
			return nil, newParseError(fmt.Sprintf("namespaced field %s:%s", el.XMLName.Space, field), nil)
		}
		m.AddTag(field, strings.TrimSpace(el.Value), true)
	}
	m.CheckSort()

	return m, nil
}

// Encode writes the metadata document in canonical order.
func (m *Metadata) Encode(w io.Writer) error {
	data, err := m.MarshalDocument()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// MarshalDocument returns the metadata document in canonical order.
func (m *Metadata) MarshalDocument() ([]byte, error) {
	doc := xmlPackage{}
	for _, e := range m.Entries() {
		doc.Fields = append(doc.Fields, xmlElement{
			XMLName: xml.Name{Local: e.Field},
			Value:   e.Value,
		})
	}

	body, err := xml.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
