// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package msgpack

import "fmt"

// TokenError indicates the next token in the stream did not match what
// the caller (or the active converter) expected.
type TokenError struct {
	Expected Kind
	Got      Kind
	LeadByte byte
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("msgpack: expected %s token, got %s (lead byte 0x%02x)", e.Expected, e.Got, e.LeadByte)
}

func tokenError(expected, got Kind, lead byte) *TokenError {
	return &TokenError{Expected: expected, Got: got, LeadByte: lead}
}

// OverflowError indicates a numeric token decoded successfully but its
// value does not fit the destination type. This is always reported
// distinctly from TokenError: the token was well-formed, the value
// wasn't representable.
type OverflowError struct {
	Kind Kind
	Dest string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("msgpack: %s value overflows destination type %s", e.Kind, e.Dest)
}

func overflowError(k Kind, dest string) *OverflowError {
	return &OverflowError{Kind: k, Dest: dest}
}

// DepthError indicates a converter recursed past the configured
// MaxDepth while walking nested arrays/maps/objects.
type DepthError struct {
	MaxDepth int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("msgpack: exceeded maximum nesting depth (%d)", e.MaxDepth)
}

func depthError(max int) *DepthError {
	return &DepthError{MaxDepth: max}
}

// SubtypeError indicates a union converter could not resolve a payload
// to any of its registered aliases or met a concrete type that is not
// a registered member; enum converters report unknown names and
// unnamed values with it too.
type SubtypeError struct {
	Alias  string
	Reason string
}

func (e *SubtypeError) Error() string {
	if e.Alias == "" {
		return fmt.Sprintf("msgpack: union subtype error: %s", e.Reason)
	}
	return fmt.Sprintf("msgpack: union subtype %q: %s", e.Alias, e.Reason)
}

func subtypeError(alias, reason string) *SubtypeError {
	return &SubtypeError{Alias: alias, Reason: reason}
}

// SchemaError indicates the shape of a Go type could not be converted
// to or from the MessagePack wire form (e.g. a map key type with no
// canonical string representation).
type SchemaError struct {
	TypeName string
	Reason   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("msgpack: type %s cannot be serialized: %s", e.TypeName, e.Reason)
}

func schemaError(typeName, reason string) *SchemaError {
	return &SchemaError{TypeName: typeName, Reason: reason}
}

// ReferenceError indicates a back-reference extension pointed at an id
// that has not (yet, or ever) been assigned during this decode.
type ReferenceError struct {
	ID int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("msgpack: reference to unknown id %d", e.ID)
}

func referenceError(id int) *ReferenceError {
	return &ReferenceError{ID: id}
}
