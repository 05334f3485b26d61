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
	"io"
	"reflect"
)

// Writer is the synchronous, blocking facade over Formatter: it
// serializes one Go value per Encode call and writes the resulting
// bytes straight to dst, for callers that want a simple io.Writer-
// shaped API and are fine blocking until the underlying write
// completes (as opposed to the suspension-point-driven AsyncWriter in
// async.go).
type Writer struct {
	dst  io.Writer
	opts Options
	fmtr *Formatter
}

// NewWriter returns a Writer that encodes successive values to dst.
func NewWriter(dst io.Writer, opts ...Option) *Writer {
	return &Writer{dst: dst, opts: newOptions(opts...), fmtr: NewFormatter()}
}

// Encode serializes v and writes it to the underlying writer.
func (w *Writer) Encode(v any) error {
	w.fmtr.Reset()
	w.fmtr.SetOldSpecCompatibility(w.opts.oldSpecCompatibility)
	st := newEncodeState(w.opts)
	rv := reflect.ValueOf(v)
	conv := resolve(rv.Type(), w.opts)
	if err := conv.encode(w.fmtr, rv, st); err != nil {
		return err
	}
	_, err := w.dst.Write(w.fmtr.Bytes())
	return err
}

func newEncodeState(opts Options) *encodeState {
	st := &encodeState{opts: opts}
	if opts.preserveReferences {
		st.refs = newReferenceTracker()
	}
	return st
}
