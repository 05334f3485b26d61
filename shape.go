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
	"strings"
	"sync"
)

// fieldSpec is one struct field's wire shape, derived once per struct
// type and cached alongside its converter.
type fieldSpec struct {
	index     int
	name      string
	omitempty bool
	required  bool
}

// structShape is the result of walking a struct type's fields: the
// ordered, wire-visible field list. Anonymous (embedded) fields are
// not flattened — MessagePack has no promoted-field convention of its
// own, and flattening would make the array-scheme's positional
// indexing ambiguous.
type structShape struct {
	fields []fieldSpec
}

func parseStructShape(t reflect.Type) *structShape {
	s := &structShape{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("msgpack")
		if tag == "-" {
			continue
		}
		name, rest, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		omitempty := false
		required := false
		for _, opt := range strings.Split(rest, ",") {
			switch opt {
			case "omitempty":
				omitempty = true
			case "required":
				required = true
			}
		}
		s.fields = append(s.fields, fieldSpec{index: i, name: name, omitempty: omitempty, required: required})
	}
	return s
}

var (
	shapeMu sync.RWMutex
	shapes  = map[reflect.Type]*structShape{}
)

func structShapeFor(t reflect.Type) *structShape {
	shapeMu.RLock()
	s, ok := shapes[t]
	shapeMu.RUnlock()
	if ok {
		return s
	}
	s = parseStructShape(t)
	shapeMu.Lock()
	shapes[t] = s
	shapeMu.Unlock()
	return s
}

// arraySchemeRegistry holds the set of struct types that should be
// encoded as a plain positional array of field values instead of the
// default map-of-names scheme, for callers that want the most compact
// wire form for a schema both sides already agree on.
var (
	arraySchemeMu  sync.RWMutex
	arraySchemeSet = map[reflect.Type]bool{}
)

// RegisterArrayScheme opts T's struct fields into array-scheme
// encoding: a MessagePack array of field values in declaration order,
// rather than a map keyed by field name. Unknown trailing fields on
// read are skipped; a struct with fewer elements than fields leaves
// the remaining fields at their zero value.
func RegisterArrayScheme[T any]() {
	t := reflect.TypeOf(*new(T))
	arraySchemeMu.Lock()
	arraySchemeSet[t] = true
	arraySchemeMu.Unlock()
}

func usesArrayScheme(t reflect.Type) bool {
	arraySchemeMu.RLock()
	defer arraySchemeMu.RUnlock()
	return arraySchemeSet[t]
}
