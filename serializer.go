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

import (
	"bytes"
	"context"
	"reflect"
)

// Serializer is the package's top-level, reusable entry point: build
// one with its Options fixed once, then call Serialize/Deserialize (or
// their streaming counterparts) as many times as needed. The package-
// level Serialize/Deserialize functions are shorthand for a Serializer
// built by NewSerializer from the options they are given.
type Serializer struct {
	opts Options
}

// NewSerializer builds a Serializer configured by opts.
func NewSerializer(opts ...Option) *Serializer {
	return &Serializer{opts: newOptions(opts...)}
}

// Serialize encodes v to a new byte slice.
func (s *Serializer) Serialize(v any) ([]byte, error) {
	f := getFormatter()
	defer putFormatter(f)
	f.SetOldSpecCompatibility(s.opts.oldSpecCompatibility)
	rv := reflect.ValueOf(v)
	conv := resolve(rv.Type(), s.opts)
	st := newEncodeState(s.opts)
	if err := conv.encode(f, rv, st); err != nil {
		return nil, err
	}
	out := make([]byte, f.Size())
	copy(out, f.Bytes())
	return out, nil
}

// Deserialize decodes buf into v, which must be a non-nil pointer.
// buf is borrowed by any RawMessage fields in v (see raw.go); callers
// that retain v past the lifetime of buf should Clone those fields.
func (s *Serializer) Deserialize(buf []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return schemaError("Deserialize target", "must be a non-nil pointer")
	}
	d := getDeformatter(buf)
	defer putDeformatter(d)
	conv := resolve(rv.Elem().Type(), s.opts)
	st := newDecodeState(s.opts)
	res, err := conv.decode(d, rv.Elem(), st)
	if err != nil {
		return err
	}
	switch res {
	case Success:
		return nil
	case InsufficientBuffer, EmptyBuffer:
		return &TokenError{}
	case TokenMismatch:
		return &TokenError{}
	default:
		return schemaError("Deserialize", "unexpected decode result")
	}
}

// SerializeAsync encodes v and writes it through w, a caller-supplied
// AsyncWriter, suspending at w's own flush threshold.
func (s *Serializer) SerializeAsync(ctx context.Context, w *AsyncWriter, v any) error {
	return w.Submit(ctx, v)
}

// DeserializeAsync decodes the next value from r, a caller-supplied
// AsyncReader, suspending whenever more input must be pulled.
func (s *Serializer) DeserializeAsync(ctx context.Context, r *AsyncReader, v any) error {
	return r.Decode(ctx, v)
}

var defaultSerializer = NewSerializer()

// Serialize encodes v. Equivalent to NewSerializer(opts...).Serialize(v).
func Serialize(v any, opts ...Option) ([]byte, error) {
	if len(opts) == 0 {
		return defaultSerializer.Serialize(v)
	}
	return NewSerializer(opts...).Serialize(v)
}

// Deserialize decodes buf into v. Equivalent to
// NewSerializer(opts...).Deserialize(buf, v).
func Deserialize(buf []byte, v any, opts ...Option) error {
	if len(opts) == 0 {
		return defaultSerializer.Deserialize(buf, v)
	}
	return NewSerializer(opts...).Deserialize(buf, v)
}

// SerializeToBuffer encodes v and appends the result to buf. Useful for batching many values into one
// allocation before writing them out together.
func SerializeToBuffer(buf *bytes.Buffer, v any, opts ...Option) error {
	b, err := Serialize(v, opts...)
	if err != nil {
		return err
	}
	_, err = buf.Write(b)
	return err
}
