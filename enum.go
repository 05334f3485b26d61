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

	"golang.org/x/exp/constraints"
)

type enumDef struct {
	toName  map[int64]string
	toValue map[string]int64
}

var (
	enumMu       sync.RWMutex
	enumRegistry = map[reflect.Type]*enumDef{}
)

// RegisterEnum declares that values of the named integer type T should
// be written and read as their symbolic name on the wire (a string
// token) rather than as a raw number, so that adding a new member to
// the middle of a Go const block never changes the meaning of
// previously serialized data.
func RegisterEnum[T constraints.Integer](names map[T]string) {
	def := &enumDef{toName: map[int64]string{}, toValue: map[string]int64{}}
	for v, name := range names {
		def.toName[int64(v)] = name
		def.toValue[name] = int64(v)
	}
	enumMu.Lock()
	enumRegistry[reflect.TypeOf(*new(T))] = def
	enumMu.Unlock()
}

func isEnumType(t reflect.Type) bool {
	enumMu.RLock()
	defer enumMu.RUnlock()
	_, ok := enumRegistry[t]
	return ok
}

func lookupEnum(t reflect.Type) *enumDef {
	enumMu.RLock()
	defer enumMu.RUnlock()
	return enumRegistry[t]
}

func buildEnumConverter(t reflect.Type, opts Options) converterFuncs {
	def := lookupEnum(t)
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			var v int64
			if rv.CanInt() {
				v = rv.Int()
			} else {
				v = int64(rv.Uint())
			}
			name, ok := def.toName[v]
			if !ok {
				return subtypeError(t.String(), "value has no registered enum name")
			}
			f.WriteString(name)
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			b, res := d.TryReadString()
			if res != Success {
				return res, nil
			}
			v, ok := def.toValue[string(b)]
			if !ok {
				return Success, subtypeError(t.String(), "unrecognized enum name "+string(b))
			}
			if rv.CanInt() {
				rv.SetInt(v)
			} else {
				rv.SetUint(uint64(v))
			}
			return Success, nil
		},
		schema: func() map[string]any {
			names := make([]string, 0, len(def.toValue))
			for n := range def.toValue {
				names = append(names, n)
			}
			return map[string]any{"type": "string", "enum": names}
		},
	}
}
