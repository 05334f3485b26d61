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
	"fmt"
	"math/big"
	"net/url"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/msgpack-wire/msgpack/mptime"
)

// Application-defined extension type codes used by the primitive
// converters below. These occupy the positive range, leaving the
// MessagePack-reserved timestamp code (-1, see ExtTimestamp) alone.
const (
	extBigInt  int8 = 1
	extDecimal int8 = 2
	extGUID    int8 = 3
)

func boolConverterFuncs() converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			f.WriteBool(rv.Bool())
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			v, res := d.TryReadBool()
			if res != Success {
				return res, nil
			}
			rv.SetBool(v)
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "boolean"} },
	}
}

func intConverterFuncs(t reflect.Type) converterFuncs {
	bits := t.Bits()
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			f.WriteInt(rv.Int())
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			rest := d.Rest()
			v, res := d.TryReadInt64()
			if res != Success {
				return res, nil
			}
			if rest[0] == mpUint64 && beU64(rest[1:])>>63 != 0 {
				return Success, overflowError(KindInt, t.String())
			}
			if bits < 64 {
				max := int64(1)<<(bits-1) - 1
				min := -max - 1
				if v < min || v > max {
					return Success, overflowError(KindInt, t.String())
				}
			}
			rv.SetInt(v)
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "integer"} },
	}
}

func uintConverterFuncs(t reflect.Type) converterFuncs {
	bits := t.Bits()
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			f.WriteUint(rv.Uint())
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			v, ok, res := d.TryReadUint64()
			if res != Success {
				return res, nil
			}
			if !ok {
				return Success, overflowError(KindInt, t.String())
			}
			if bits < 64 && v > (uint64(1)<<bits-1) {
				return Success, overflowError(KindInt, t.String())
			}
			rv.SetUint(v)
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "integer", "minimum": 0} },
	}
}

func floatConverterFuncs(t reflect.Type) converterFuncs {
	if t.Kind() == reflect.Float32 {
		return converterFuncs{
			encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
				f.WriteFloat32(float32(rv.Float()))
				return nil
			},
			decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
				v, res := d.TryReadFloat32()
				if res != Success {
					return res, nil
				}
				rv.SetFloat(float64(v))
				return Success, nil
			},
			schema: func() map[string]any { return map[string]any{"type": "number"} },
		}
	}
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			f.WriteFloat64(rv.Float())
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			v, res := d.TryReadFloat64()
			if res != Success {
				return res, nil
			}
			rv.SetFloat(v)
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "number"} },
	}
}

func stringConverterFuncs(t reflect.Type, opts Options) converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			s := rv.String()
			if opts.internStrings {
				s = internString(s)
			}
			f.WriteString(s)
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			b, res := d.TryReadString()
			if res != Success {
				return res, nil
			}
			if st.opts.internStrings {
				rv.SetString(internBytes(b))
			} else {
				rv.SetString(string(b))
			}
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "string"} },
	}
}

func bytesConverterFuncs(t reflect.Type, opts Options) converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			f.WriteBinary(rv.Bytes())
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			var b []byte
			var res DecodeResult
			if st.opts.oldSpecCompatibility {
				b, res = d.TryReadBinaryCompat()
			} else {
				b, res = d.TryReadBinary()
			}
			if res != Success {
				return res, nil
			}
			cp := make([]byte, len(b))
			copy(cp, b)
			rv.SetBytes(cp)
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "string", "format": "binary"} },
	}
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	mptimeType  = reflect.TypeOf(mptime.Time{})
	bigIntType  = reflect.TypeOf(big.Int{})
	urlType     = reflect.TypeOf(url.URL{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(Decimal{})
)

// Decimal is an arbitrary-precision base-10 number: Unscaled *
// 10^-Scale. It is the primitive converter's representation of a
// decimal value with no binary floating-point rounding.
type Decimal struct {
	Unscaled big.Int
	Scale    int32
}

// wellKnownConverter returns the converter for a handful of concrete
// (non-reflect-kind-driven) types the primitive set names explicitly:
// timestamps, arbitrary-precision integers and decimals, URIs,
// versions, GUIDs and RawMessage.
func wellKnownConverter(t reflect.Type, opts Options) (converterFuncs, bool) {
	switch t {
	case reflect.TypeOf(RawMessage{}):
		return converterFuncs{
			encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
				r := rv.Interface().(RawMessage)
				if r.IsZero() {
					f.WriteNil()
				}
				encodeRawMessage(f, r)
				return nil
			},
			decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
				raw, res := decodeRawMessage(d)
				rv.Set(reflect.ValueOf(raw))
				return res, nil
			},
		}, true
	case timeType:
		return timeConverterFuncs(), true
	case mptimeType:
		return mptimeConverterFuncs(), true
	case bigIntType:
		return bigIntConverterFuncs(), true
	case decimalType:
		return decimalConverterFuncs(), true
	case urlType:
		return urlConverterFuncs(), true
	case uuidType:
		return guidConverterFuncs(), true
	}
	return converterFuncs{}, false
}

func timeConverterFuncs() converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			t := rv.Interface().(time.Time)
			return f.WriteTimestamp(mptime.FromTime(t))
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			v, res := d.TryReadTimestamp()
			if res != Success {
				return res, nil
			}
			rv.Set(reflect.ValueOf(v.Time()))
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "string", "format": "date-time"} },
	}
}

func mptimeConverterFuncs() converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			return f.WriteTimestamp(rv.Interface().(mptime.Time))
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			v, res := d.TryReadTimestamp()
			if res != Success {
				return res, nil
			}
			rv.Set(reflect.ValueOf(v))
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "string", "format": "date-time"} },
	}
}

// bigIntConverterFuncs encodes a big.Int as the extBigInt extension: a
// single leading sign byte (0 for zero/positive, 1 for negative)
// followed by the big-endian magnitude bytes.
func bigIntConverterFuncs() converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			b := rv.Interface().(big.Int)
			mag := b.Bytes()
			payload := make([]byte, 1+len(mag))
			if b.Sign() < 0 {
				payload[0] = 1
			}
			copy(payload[1:], mag)
			f.WriteExt(extBigInt, payload)
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			h, payload, res := d.TryReadExt()
			if res != Success {
				return res, nil
			}
			if h.Type != extBigInt || len(payload) < 1 {
				return res, subtypeError("", "expected bigint extension")
			}
			var out big.Int
			out.SetBytes(payload[1:])
			if payload[0] != 0 {
				out.Neg(&out)
			}
			rv.Set(reflect.ValueOf(out))
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "string", "format": "bigint"} },
	}
}

// decimalConverterFuncs encodes a Decimal as the extDecimal extension:
// a 4-byte big-endian scale followed by the same sign-byte-plus-
// magnitude encoding bigIntConverterFuncs uses for the unscaled value.
func decimalConverterFuncs() converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			dec := rv.Interface().(Decimal)
			mag := dec.Unscaled.Bytes()
			payload := make([]byte, 4+1+len(mag))
			putBE32(payload[:4], uint32(dec.Scale))
			if dec.Unscaled.Sign() < 0 {
				payload[4] = 1
			}
			copy(payload[5:], mag)
			f.WriteExt(extDecimal, payload)
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			h, payload, res := d.TryReadExt()
			if res != Success {
				return res, nil
			}
			if h.Type != extDecimal || len(payload) < 5 {
				return res, subtypeError("", "expected decimal extension")
			}
			var out Decimal
			out.Scale = int32(beU32(payload[:4]))
			out.Unscaled.SetBytes(payload[5:])
			if payload[4] != 0 {
				out.Unscaled.Neg(&out.Unscaled)
			}
			rv.Set(reflect.ValueOf(out))
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "string", "format": "decimal"} },
	}
}

func urlConverterFuncs() converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			u := rv.Interface().(url.URL)
			f.WriteString(u.String())
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			b, res := d.TryReadString()
			if res != Success {
				return res, nil
			}
			u, err := url.Parse(string(b))
			if err != nil {
				return Success, schemaError("url.URL", err.Error())
			}
			rv.Set(reflect.ValueOf(*u))
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "string", "format": "uri"} },
	}
}

func guidConverterFuncs() converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			id := rv.Interface().(uuid.UUID)
			f.WriteExt(extGUID, id[:])
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			h, payload, res := d.TryReadExt()
			if res != Success {
				return res, nil
			}
			if h.Type != extGUID || len(payload) != 16 {
				return res, subtypeError("", "expected 16-byte GUID extension")
			}
			id, err := uuid.FromBytes(payload)
			if err != nil {
				return Success, fmt.Errorf("msgpack: %w", err)
			}
			rv.Set(reflect.ValueOf(id))
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{"type": "string", "format": "uuid"} },
	}
}
