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
	"reflect"
	"sync"

	"github.com/dchest/siphash"
)

// Two arbitrary, fixed 64-bit halves of a siphash key. They only need
// to be stable within a process lifetime (the converter cache is
// process-wide, never persisted or compared across processes), the
// same way the teacher's ion/compress.go strtab seeds its
// hash/maphash table once per process.
const (
	cacheKeySeed0 = 0x9ae16a3b2f90404f
	cacheKeySeed1 = 0xc949d7c7509e6557
)

// cacheKeyHash folds a reflect.Type and the subset of Options that
// changes wire shape into a 64-bit shard key. It is not required to be
// collision-free; converterCache resolves collisions by storing full
// (reflect.Type, bits) pairs per bucket and comparing them directly,
// the hash only narrows which bucket to search.
func cacheKeyHash(t reflect.Type, bits uint64) uint64 {
	name := t.PkgPath() + "." + t.String()
	buf := make([]byte, len(name)+8)
	copy(buf, name)
	putBE64(buf[len(name):], bits)
	return siphash.Hash(cacheKeySeed0, cacheKeySeed1, buf)
}

type cacheEntry struct {
	typ  reflect.Type
	bits uint64
	conv *converter
}

// converterCache is the process-wide cache of compiled converters,
// keyed by (reflect.Type, option bits) so that the same Go type
// serialized under different Options (e.g. old_spec_compatibility on
// vs off) gets independently compiled converters. It mirrors the
// teacher's structEncoders/structDecoders sync.Map pattern in
// ion/marshal.go and ion/unmarshal.go, generalized to a sharded map
// hashed with siphash instead of relying solely on sync.Map's internal
// hashing of an interface key.
type converterCache struct {
	mu      sync.RWMutex
	buckets map[uint64][]cacheEntry
}

var globalConverterCache = &converterCache{buckets: make(map[uint64][]cacheEntry)}

func (c *converterCache) get(t reflect.Type, bits uint64) (*converter, bool) {
	h := cacheKeyHash(t, bits)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.buckets[h] {
		if e.typ == t && e.bits == bits {
			return e.conv, true
		}
	}
	return nil, false
}

// getOrCreatePlaceholder returns the existing converter for (t, bits)
// if present, otherwise stores and returns a fresh unpublished
// converter so that concurrent or recursive lookups for the same type
// observe the same placeholder instead of racing to build it twice.
func (c *converterCache) getOrCreatePlaceholder(t reflect.Type, bits uint64) (conv *converter, created bool) {
	h := cacheKeyHash(t, bits)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.buckets[h] {
		if e.typ == t && e.bits == bits {
			return e.conv, false
		}
	}
	conv = newPendingConverter()
	c.buckets[h] = append(c.buckets[h], cacheEntry{typ: t, bits: bits, conv: conv})
	return conv, true
}
