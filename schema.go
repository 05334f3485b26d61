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

// GetJSONSchema returns a JSON-Schema-like fragment describing how
// values of v's type are encoded on the wire. It is a hook exposed at
// the converter level (every converter implements jsonSchema()), not a
// standalone generator: there is no CLI or code-generation surface
// here, matching the "specified only at the interface level" scope
// for schema support.
func GetJSONSchema(v any, opts ...Option) map[string]any {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	o := newOptions(opts...)
	return resolve(t, o).jsonSchema()
}
