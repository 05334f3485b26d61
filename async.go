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
	"context"
	"errors"
	"io"
	"reflect"
)

// AsyncWriter is a pull-based, chunked encoder: values handed to
// Submit are encoded onto an internal buffer and handed to a
// background flush goroutine once the buffer passes flushThreshold,
// mirroring the teacher's ion/chunker.go Chunker, which batches writes
// and flushes on its own schedule rather than on every call. Where the
// teacher flushes compressed Ion chunks, this flushes raw MessagePack
// bytes; the "batch, then hand off, then keep accepting more input"
// shape is the same.
//
// Submit is a suspension point: once the buffer passes flushThreshold,
// Submit calls the configured stall hook and hands the batch to the
// flush goroutine over an unbuffered channel, blocking until the
// goroutine takes it (or ctx is done), instead of growing the buffer
// without bound.
type AsyncWriter struct {
	dst             io.Writer
	opts            Options
	flushThreshold  int
	pending         *Formatter
	flush           chan []byte
	flushErr        chan error
	done            chan struct{}
}

const defaultFlushThreshold = 32 * 1024

// NewAsyncWriter returns an AsyncWriter flushing to dst in the
// background.
func NewAsyncWriter(dst io.Writer, opts ...Option) *AsyncWriter {
	o := newOptions(opts...)
	pending := NewFormatter()
	pending.SetOldSpecCompatibility(o.oldSpecCompatibility)
	w := &AsyncWriter{
		dst:            dst,
		opts:           o,
		flushThreshold: defaultFlushThreshold,
		pending:        pending,
		flush:          make(chan []byte),
		flushErr:       make(chan error, 1),
		done:           make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for b := range w.flush {
		if _, err := w.dst.Write(b); err != nil {
			w.flushErr <- err
			// drain remaining sends so Submit/Close don't block forever
			for range w.flush {
			}
			return
		}
	}
	w.flushErr <- nil
}

// Submit encodes v and appends it to the pending batch. Once the buffer
// has passed flushThreshold it calls the stall hook and blocks until
// the flush goroutine takes the batch or ctx is done.
func (w *AsyncWriter) Submit(ctx context.Context, v any) error {
	select {
	case err := <-w.flushErr:
		return err
	default:
	}
	rv := reflect.ValueOf(v)
	conv := resolve(rv.Type(), w.opts)
	st := newEncodeState(w.opts)
	if err := conv.encode(w.pending, rv, st); err != nil {
		return err
	}
	if w.pending.Size() < w.flushThreshold {
		return nil
	}
	return w.flushNow(ctx)
}

func (w *AsyncWriter) flushNow(ctx context.Context) error {
	if w.pending.Size() == 0 {
		return nil
	}
	w.opts.onStall("async writer flushing %d bytes", w.pending.Size())
	b := make([]byte, w.pending.Size())
	copy(b, w.pending.Bytes())
	w.pending.Reset()
	select {
	case w.flush <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes any remaining buffered data and waits for the
// background writer to finish.
func (w *AsyncWriter) Close(ctx context.Context) error {
	if err := w.flushNow(ctx); err != nil {
		return err
	}
	close(w.flush)
	<-w.done
	select {
	case err := <-w.flushErr:
		return err
	default:
		return nil
	}
}

// AsyncReader is the pull-based counterpart: a background goroutine
// reads chunks from src into a channel, and Decode pulls from that
// channel only when the current buffer can't satisfy a decode,
// calling the stall hook each time it must wait — the mirror image of
// AsyncWriter's flush suspension point.
type AsyncReader struct {
	opts  Options
	chunk chan []byte
	errc  chan error
	buf   []byte
	eof   bool
}

// NewAsyncReader returns an AsyncReader pulling chunks from src in the
// background, each up to chunkSize bytes.
func NewAsyncReader(src io.Reader, chunkSize int, opts ...Option) *AsyncReader {
	if chunkSize <= 0 {
		chunkSize = defaultFlushThreshold
	}
	r := &AsyncReader{
		opts:  newOptions(opts...),
		chunk: make(chan []byte),
		errc:  make(chan error, 1),
	}
	go func() {
		defer close(r.chunk)
		for {
			b := make([]byte, chunkSize)
			n, err := src.Read(b)
			if n > 0 {
				r.chunk <- b[:n]
			}
			if err != nil {
				r.errc <- err
				return
			}
		}
	}()
	return r
}

// Decode reads and decodes exactly one top-level value, pulling
// additional chunks from the background reader as needed.
func (r *AsyncReader) Decode(ctx context.Context, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return schemaError("Decode target", "must be a non-nil pointer")
	}
	elem := rv.Elem()
	conv := resolve(elem.Type(), r.opts)
	st := newDecodeState(r.opts)

	for {
		d := NewDeformatter(r.buf)
		res, err := conv.decode(d, elem, st)
		if err != nil {
			return err
		}
		switch res {
		case Success:
			r.buf = r.buf[d.Offset():]
			return nil
		case InsufficientBuffer, EmptyBuffer:
			if err := r.pull(ctx); err != nil {
				return err
			}
		case TokenMismatch:
			return &TokenError{}
		default:
			return errors.New("msgpack: unexpected decode result")
		}
	}
}

func (r *AsyncReader) pull(ctx context.Context) error {
	if r.eof {
		return io.ErrUnexpectedEOF
	}
	r.opts.onStall("async reader waiting for more data")
	select {
	case b, ok := <-r.chunk:
		if ok {
			r.buf = append(r.buf, b...)
			return nil
		}
		err := <-r.errc
		r.eof = true
		if errors.Is(err, io.EOF) {
			if len(r.buf) > 0 {
				return nil
			}
			return io.EOF
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
