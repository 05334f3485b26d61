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
	"errors"
	"io"
	"reflect"
)

// Reader is the synchronous, blocking facade over Deformatter: it
// decodes one Go value per Decode call from src, growing its internal
// buffer and re-reading from src whenever a tryRead* call reports
// InsufficientBuffer, until either a complete value has been decoded
// or src is exhausted (io.EOF).
type Reader struct {
	src  io.Reader
	opts Options
	buf  []byte
	// off is how many leading bytes of buf belong to values already
	// fully consumed by prior Decode calls; compact drops them after a
	// successful Decode once off reaches 64 KiB.
	off int
}

// NewReader returns a Reader that decodes successive values from src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	return &Reader{src: src, opts: newOptions(opts...)}
}

// Decode reads and decodes exactly one top-level value into v, which
// must be a non-nil pointer.
func (r *Reader) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return schemaError("Decode target", "must be a non-nil pointer")
	}
	elem := rv.Elem()
	conv := resolve(elem.Type(), r.opts)
	st := newDecodeState(r.opts)

	for {
		d := NewDeformatter(r.buf[r.off:])
		res, err := conv.decode(d, elem, st)
		if err != nil {
			return err
		}
		switch res {
		case Success:
			r.off += d.Offset()
			r.compact()
			return nil
		case InsufficientBuffer, EmptyBuffer:
			if err := r.fill(); err != nil {
				return err
			}
		case TokenMismatch:
			return &TokenError{}
		default:
			return errors.New("msgpack: unexpected decode result")
		}
	}
}

// fill reads more bytes from src, growing buf, or returns io.EOF/
// io.ErrUnexpectedEOF if src has nothing left to give.
func (r *Reader) fill() error {
	n := len(r.buf)
	grown := make([]byte, n+4096)
	copy(grown, r.buf)
	read, err := r.src.Read(grown[n:])
	r.buf = grown[:n+read]
	if read == 0 && err != nil {
		if errors.Is(err, io.EOF) && n > r.off {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// compact drops the already-consumed prefix of buf once it grows past
// a threshold, so a long-lived Reader doesn't retain every byte it has
// ever seen.
func (r *Reader) compact() {
	if r.off < 64*1024 {
		return
	}
	copy(r.buf, r.buf[r.off:])
	r.buf = r.buf[:len(r.buf)-r.off]
	r.off = 0
}

func newDecodeState(opts Options) *decodeState {
	st := &decodeState{opts: opts}
	if opts.preserveReferences {
		st.refs = newReferenceResolver()
	}
	return st
}
