// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package meta models the descriptive metadata of a resource bundle ("meta.xml").

Metadata holds a fixed set of singleton fields, a repeatable tag list and any
number of additional fields passed through unchanged.

	<package>
	 <name>Foo</name>
	 <author>Jane</author>
	 <license>CC-BY-SA</license>
	 <tag>ink</tag>
	</package>

Singletons keep the most recent value assigned to them; setting one to the
empty string removes it. Tags are an ordered set compared case-sensitively.
*/
package meta
