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
	"sync"

	"github.com/dchest/siphash"
)

// internTable is a process-wide string intern table used when
// WithInternStrings is set, so that repeated string values and map keys
// decoded across many calls share one backing string instead of each
// allocating its own copy. It plays the same role as the teacher's
// ion/symtab.go Symtab.getBytes lookup, generalized from a per-document
// symbol table to a process-wide cache (this engine has no equivalent
// of Ion's embedded symbol table to scope interning to one document).
type internTable struct {
	mu sync.RWMutex
	m  map[uint64][]string
}

var globalIntern = &internTable{m: make(map[uint64][]string)}

func internHash(b []byte) uint64 {
	return siphash.Hash(cacheKeySeed0, cacheKeySeed1, b)
}

func internBytes(b []byte) string {
	h := internHash(b)
	globalIntern.mu.RLock()
	for _, s := range globalIntern.m[h] {
		if s == string(b) {
			globalIntern.mu.RUnlock()
			return s
		}
	}
	globalIntern.mu.RUnlock()

	s := string(b)
	globalIntern.mu.Lock()
	defer globalIntern.mu.Unlock()
	for _, existing := range globalIntern.m[h] {
		if existing == s {
			return existing
		}
	}
	globalIntern.m[h] = append(globalIntern.m[h], s)
	return s
}

func internString(s string) string {
	return internBytes([]byte(s))
}
