// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/KDE/krita-sub040/validation/name"
)

// Recognised field names.
const (
	FieldName        = "name"
	FieldAuthor      = "author"
	FieldCreated     = "created"
	FieldLicense     = "license"
	FieldUpdated     = "updated"
	FieldDescription = "description"
	FieldWebsite     = "website"
	FieldTag         = "tag"
)

// DateLayout is the layout of the created and updated fields.
const DateLayout = "02/01/2006"

// singletonFields lists the singleton fields in rank order.
var singletonFields = []string{
	FieldName,
	FieldAuthor,
	FieldCreated,
	FieldLicense,
	FieldUpdated,
	FieldDescription,
	FieldWebsite,
}

var (
	extensionRegex = regexp.MustCompile(`^\.[A-Za-z][A-Za-z0-9]*$`)
	fieldNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)
)

// Kind classifies a field name.
type Kind int

const (
	// KindSingleton fields occur at most once.
	KindSingleton Kind = iota
	// KindTag is the repeatable tag field.
	KindTag
	// KindOther covers unrecognised fields, which are passed through.
	KindOther
)

// KindOf returns the kind of field.
func KindOf(field string) Kind {
	switch {
	case field == FieldTag:
		return KindTag
	case slices.Contains(singletonFields, field):
		return KindSingleton
	default:
		return KindOther
	}
}

// SingletonFields returns the singleton field names in rank order.
func SingletonFields() []string {
	return slices.Clone(singletonFields)
}

// Entry is a single field/value pair.
type Entry struct {
	Field string
	Value string
}

// Metadata is the bundle-level descriptive record.
// The zero value is not usable; call New.
type Metadata struct {
	singles map[string]string
	others  []Entry
	tags    []string
}

// New returns empty metadata.
func New() *Metadata {
	return &Metadata{singles: make(map[string]string)}
}

// AddTag records value under field.
//
// For a singleton field a non-empty value replaces the current one and an
// empty value removes the field. For the tag field the value is appended
// unless already present. Any other field is appended when value is
// non-empty and field is a valid element name. fresh marks a document being
// built from scratch, where there is nothing to replace or remove.
func (m *Metadata) AddTag(field, value string, fresh bool) {
	switch KindOf(field) {
	case KindSingleton:
		if value == "" {
			if !fresh {
				delete(m.singles, field)
			}
			return
		}
		m.singles[field] = value
	case KindTag:
		if value == "" || slices.Contains(m.tags, value) {
			return
		}
		m.tags = append(m.tags, value)
	case KindOther:
		if value == "" || !fieldNameRegex.MatchString(field) {
			return
		}
		m.others = append(m.others, Entry{Field: field, Value: value})
	}
}

// AddTags adds every tag not already present.
func (m *Metadata) AddTags(tags []string) {
	for _, t := range tags {
		m.AddTag(FieldTag, t, false)
	}
}

// RemoveFirstTag removes the first entry of field whose value equals value
// and reports whether one was removed.
func (m *Metadata) RemoveFirstTag(field, value string) bool {
	switch KindOf(field) {
	case KindSingleton:
		if v, ok := m.singles[field]; ok && v == value {
			delete(m.singles, field)
			return true
		}
	case KindTag:
		if i := slices.Index(m.tags, value); i >= 0 {
			m.tags = slices.Delete(m.tags, i, i+1)
			return true
		}
	case KindOther:
		for i, e := range m.others {
			if e.Field == field && e.Value == value {
				m.others = slices.Delete(m.others, i, i+1)
				return true
			}
		}
	}
	return false
}

// RemoveTag removes every entry of field and returns how many were removed.
func (m *Metadata) RemoveTag(field string) int {
	switch KindOf(field) {
	case KindSingleton:
		if _, ok := m.singles[field]; ok {
			delete(m.singles, field)
			return 1
		}
	case KindTag:
		n := len(m.tags)
		m.tags = nil
		return n
	case KindOther:
		before := len(m.others)
		m.others = slices.DeleteFunc(m.others, func(e Entry) bool { return e.Field == field })
		return before - len(m.others)
	}
	return 0
}

// Get returns the value of a singleton field, or the first value of any
// other field. It returns "" when the field is absent.
func (m *Metadata) Get(field string) string {
	switch KindOf(field) {
	case KindSingleton:
		return m.singles[field]
	case KindTag:
		if len(m.tags) > 0 {
			return m.tags[0]
		}
	case KindOther:
		for _, e := range m.others {
			if e.Field == field {
				return e.Value
			}
		}
	}
	return ""
}

// Has reports whether field has at least one value.
func (m *Metadata) Has(field string) bool {
	switch KindOf(field) {
	case KindSingleton:
		_, ok := m.singles[field]
		return ok
	case KindTag:
		return len(m.tags) > 0
	default:
		return slices.ContainsFunc(m.others, func(e Entry) bool { return e.Field == field })
	}
}

// Tags returns the tag list in insertion order.
func (m *Metadata) Tags() []string {
	return slices.Clone(m.tags)
}

// HasTag reports whether tag is in the tag list.
func (m *Metadata) HasTag(tag string) bool {
	return slices.Contains(m.tags, tag)
}

// Others returns the passthrough fields in insertion order.
func (m *Metadata) Others() []Entry {
	return slices.Clone(m.others)
}

// Singletons returns the present singleton fields in rank order.
func (m *Metadata) Singletons() []Entry {
	var entries []Entry
	for _, f := range singletonFields {
		if v, ok := m.singles[f]; ok {
			entries = append(entries, Entry{Field: f, Value: v})
		}
	}
	return entries
}

// Entries returns every field in canonical document order: singletons by
// rank, passthrough fields, then tags.
func (m *Metadata) Entries() []Entry {
	entries := m.Singletons()
	entries = append(entries, m.others...)
	for _, t := range m.tags {
		entries = append(entries, Entry{Field: FieldTag, Value: t})
	}
	return entries
}

// PackName returns the declared name with any directory and file extension
// stripped.
func (m *Metadata) PackName() string {
	n := strings.ReplaceAll(m.singles[FieldName], `\`, "/")
	n = strings.TrimSpace(n)
	if n == "" {
		return ""
	}
	n = path.Base(n)
	if ext := path.Ext(n); ext != n && extensionRegex.MatchString(ext) {
		n = strings.TrimSuffix(n, ext)
	}
	if n == "/" || n == "." {
		return ""
	}
	return n
}

// ShortPackName returns PackName made safe for use as a directory name.
func (m *Metadata) ShortPackName() string {
	pn := m.PackName()
	if pn == "" {
		return ""
	}
	return name.SanitizeSegment(pn)
}

// CheckSort canonicalizes the metadata. Empty values are dropped and
// repeated tags collapse to their first occurrence. Singleton order is
// implied by field rank. Calling it twice has the same effect as once.
func (m *Metadata) CheckSort() {
	for f, v := range m.singles {
		if v == "" {
			delete(m.singles, f)
		}
	}
	tags := m.tags[:0:0]
	for _, t := range m.tags {
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	m.tags = tags
	m.others = slices.DeleteFunc(m.others, func(e Entry) bool { return e.Field == "" || e.Value == "" })
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	c := New()
	for f, v := range m.singles {
		c.singles[f] = v
	}
	c.others = slices.Clone(m.others)
	c.tags = slices.Clone(m.tags)
	return c
}
