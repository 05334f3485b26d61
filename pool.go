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

import "sync"

var formatterPool = sync.Pool{
	New: func() any { return NewFormatter() },
}

func getFormatter() *Formatter {
	return formatterPool.Get().(*Formatter)
}

// putFormatter returns f to the pool after zeroing its backing bytes,
// so a reused buffer never leaks a previous payload's bytes into
// whatever borrows it next — the same guard internal/memops exists
// for.
func putFormatter(f *Formatter) {
	f.Reset()
	formatterPool.Put(f)
}

var deformatterPool = sync.Pool{
	New: func() any { return NewDeformatter(nil) },
}

func getDeformatter(buf []byte) *Deformatter {
	d := deformatterPool.Get().(*Deformatter)
	d.Reset(buf)
	return d
}

func putDeformatter(d *Deformatter) {
	d.Reset(nil)
	deformatterPool.Put(d)
}
