// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/KDE/krita-sub040/resource"
)

// FileName is the name of the manifest entry inside a bundle archive.
const FileName = "manifest.xml"

// maxDocumentSize limits the manifest document to prevent XML parsing attacks.
const maxDocumentSize = 16 * 1024 * 1024

type xmlManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Categories []xmlCategory `xml:",any"`
}

type xmlCategory struct {
	XMLName xml.Name
	Files   []xmlFile `xml:"file"`
}

type xmlFile struct {
	Name   string   `xml:"name,attr"`
	Digest string   `xml:"digest,attr,omitempty"`
	Tags   []string `xml:"tag"`
}

// Parse reads a manifest document. Malformed input yields a *ParseError.
func Parse(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, newParseError("reading document", err)
	}
	if len(data) > maxDocumentSize {
		return nil, newParseError(fmt.Sprintf("document exceeds %d bytes", maxDocumentSize), nil)
	}
	return ParseBytes(data)
}

// ParseBytes parses a manifest document held in memory.
func ParseBytes(data []byte) (*Manifest, error) {
	var doc xmlManifest
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, newParseError("invalid XML", err)
	}

	m := New()
	for _, node := range doc.Categories {
		category, err := resource.ParseCategory(node.XMLName.Local)
		if err != nil {
			return nil, newParseError("unknown category element", err)
		}
		for _, f := range node.Files {
			if err := validateFilePath(f.Name); err != nil {
				return nil, newParseError(fmt.Sprintf("file in <%s>", category), err)
			}
			var d digest.Digest
			if f.Digest != "" {
				d, err = digest.Parse(f.Digest)
				if err != nil {
					return nil, newParseError(fmt.Sprintf("digest of %s", f.Name), err)
				}
			}
			tags := make([]string, 0, len(f.Tags))
			for _, t := range f.Tags {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			e := m.AddResource(category, f.Name, tags, "")
			if e.Digest == "" {
				e.Digest = d
			}
		}
	}
	m.CheckSort()

	return m, nil
}

// Encode writes the manifest document in canonical order.
func (m *Manifest) Encode(w io.Writer) error {
	data, err := m.MarshalDocument()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// MarshalDocument returns the manifest document in canonical order.
func (m *Manifest) MarshalDocument() ([]byte, error) {
	doc := xmlManifest{}
	for _, c := range m.Categories() {
		node := xmlCategory{XMLName: xml.Name{Local: c.String()}}
		for _, e := range m.files[c] {
			node.Files = append(node.Files, xmlFile{
				Name:   e.Path,
				Digest: e.Digest.String(),
				Tags:   e.Tags,
			})
		}
		doc.Categories = append(doc.Categories, node)
	}

	body, err := xml.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func validateFilePath(p string) error {
	if p == "" {
		return fmt.Errorf("missing name attribute")
	}
	cleaned := path.Clean(p)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path escapes the archive: %s", p)
	}
	if cleaned != p {
		return fmt.Errorf("path is not in canonical form: %s", p)
	}
	return nil
}
