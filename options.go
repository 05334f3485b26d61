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

import "reflect"

// Options configures a Serializer. newOptions, which every constructor
// uses, starts from the defaults (MaxDepth of defaultMaxDepth, no
// interning, no reference preservation, old_spec_compatibility off);
// a zero Options has a MaxDepth of 0, which rejects every container.
type Options struct {
	maxDepth             int
	internStrings        bool
	preserveReferences   bool
	oldSpecCompatibility bool
	defaultValuesPolicy  DefaultValuesPolicy
	onStall              func(string, ...any)
}

// DefaultValuesPolicy controls whether fields holding their type's zero
// value are written to the wire at all. spec.md §6's option table lists
// five modes (`always, value-types, reference-types, required-only,
// never`); every constant below writes a field whenever its value is
// non-zero, and the policy only decides what happens when the value
// equals its type's zero value.
type DefaultValuesPolicy int

const (
	// AlwaysWriteDefaults writes every field regardless of value.
	AlwaysWriteDefaults DefaultValuesPolicy = iota
	// ValueTypeDefaults writes a zero-valued field only when its Go
	// kind is a value kind (bool, numeric, string, array, struct);
	// zero-valued reference-kind fields (pointer, slice, map, chan,
	// func, interface, unsafe.Pointer) are omitted.
	ValueTypeDefaults
	// ReferenceTypeDefaults is the mirror image of ValueTypeDefaults:
	// a zero-valued field is written only when its kind is a reference
	// kind, and omitted when it is a value kind.
	ReferenceTypeDefaults
	// RequiredOnlyDefaults writes a zero-valued field only when the
	// field is tagged `required` in its struct shape; every other
	// zero-valued field is omitted.
	RequiredOnlyDefaults
	// OmitDefaults skips fields equal to their type's zero value,
	// shrinking the wire form at the cost of needing every consumer to
	// apply the same zero-value defaulting on read.
	OmitDefaults
)

// isReferenceKind reports whether k is one of Go's reference kinds
// (pointer, slice, map, chan, func, interface, unsafe.Pointer) — the
// kinds whose zero value is nil rather than a meaningful value in its
// own right. Every other kind (bool, the numeric kinds, string, array,
// struct) is a value kind.
func isReferenceKind(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// shouldWriteDefault reports whether a zero-valued field should still
// be written to the wire under policy, given the field's reflect.Kind
// and whether its struct tag marked it `required`.
func shouldWriteDefault(policy DefaultValuesPolicy, k reflect.Kind, required bool) bool {
	switch policy {
	case AlwaysWriteDefaults:
		return true
	case ValueTypeDefaults:
		return !isReferenceKind(k)
	case ReferenceTypeDefaults:
		return isReferenceKind(k)
	case RequiredOnlyDefaults:
		return required
	case OmitDefaults:
		return false
	default:
		return true
	}
}

const defaultMaxDepth = 256

// Option configures a Serializer via functional options, matching the
// teacher's `With...(v T) Option` idiom used across its option-struct
// packages.
type Option func(*Options)

// WithMaxDepth bounds converter recursion (nested arrays/maps/objects)
// to guard against adversarial input driving unbounded stack growth.
func WithMaxDepth(n int) Option {
	return func(o *Options) { o.maxDepth = n }
}

// WithInternStrings enables process-wide string interning for string
// values (string map keys included) on decode and encode, trading a
// lookup in the intern table for avoiding repeated allocation of
// common strings. Enum names are not interned.
func WithInternStrings(v bool) Option {
	return func(o *Options) { o.internStrings = v }
}

// WithPreserveReferences enables back-reference extensions so that
// values sharing identity (including cyclic graphs) round-trip sharing
// identity instead of being duplicated or causing infinite recursion.
func WithPreserveReferences(v bool) Option {
	return func(o *Options) { o.preserveReferences = v }
}

// WithOldSpecCompatibility writes binary payloads with str-family
// headers instead of bin-family ones and refuses to encode timestamps,
// for interoperability with decoders that predate the current
// specification. Other values, str8 headers and non-timestamp
// extensions included, are written as usual.
func WithOldSpecCompatibility(v bool) Option {
	return func(o *Options) { o.oldSpecCompatibility = v }
}

// WithDefaultValuesPolicy controls whether zero-valued fields are
// omitted from encoded objects.
func WithDefaultValuesPolicy(p DefaultValuesPolicy) Option {
	return func(o *Options) { o.defaultValuesPolicy = p }
}

// WithStallHook installs a diagnostic callback invoked by AsyncWriter
// before each batch hand-off and by AsyncReader when it must wait for
// more data.
// Defaults to a no-op; never called from the synchronous path.
func WithStallHook(fn func(string, ...any)) Option {
	return func(o *Options) { o.onStall = fn }
}

func newOptions(opts ...Option) Options {
	o := Options{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	if o.onStall == nil {
		o.onStall = func(string, ...any) {}
	}
	return o
}

// cacheBits folds the subset of Options that changes a type's wire
// shape into a small integer used as part of the converter cache key
// (see cachekey.go). Options that only affect runtime behavior (the
// stall hook) play no part in the shape and are excluded.
func (o Options) cacheBits() uint64 {
	var b uint64
	if o.internStrings {
		b |= 1 << 0
	}
	if o.preserveReferences {
		b |= 1 << 1
	}
	if o.oldSpecCompatibility {
		b |= 1 << 2
	}
	b |= uint64(o.defaultValuesPolicy) << 3
	return b
}
