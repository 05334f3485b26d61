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
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RenderAsJSON renders a complete, well-formed MessagePack value as a
// human-readable JSON string, for debugging and logging — the same
// "alternate human-readable view of an otherwise binary payload" role
// the teacher's ion/reader.go toJSON plays for Ion data. It never
// requires a Go type or a registered converter: it walks the wire
// bytes directly.
func RenderAsJSON(buf []byte) (string, error) {
	d := NewDeformatter(buf)
	var sb strings.Builder
	if err := renderJSONValue(d, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderJSONValue(d *Deformatter, sb *strings.Builder) error {
	k, ok := d.PeekKind()
	if !ok {
		return io.ErrUnexpectedEOF
	}
	switch k {
	case KindNull:
		if res := d.TryReadNil(); res != Success {
			return fmt.Errorf("msgpack: %s decoding null", res)
		}
		sb.WriteString("null")
	case KindBool:
		v, res := d.TryReadBool()
		if res != Success {
			return fmt.Errorf("msgpack: %s decoding bool", res)
		}
		sb.WriteString(strconv.FormatBool(v))
	case KindInt:
		v, res := d.TryReadInt64()
		if res != Success {
			return fmt.Errorf("msgpack: %s decoding int", res)
		}
		sb.WriteString(strconv.FormatInt(v, 10))
	case KindFloat:
		lead, _ := d.PeekLeadByte()
		if lead == mpFloat32 {
			v, res := d.TryReadFloat32()
			if res != Success {
				return fmt.Errorf("msgpack: %s decoding float32", res)
			}
			sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		} else {
			v, res := d.TryReadFloat64()
			if res != Success {
				return fmt.Errorf("msgpack: %s decoding float64", res)
			}
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	case KindString:
		b, res := d.TryReadString()
		if res != Success {
			return fmt.Errorf("msgpack: %s decoding string", res)
		}
		writeJSONString(sb, string(b))
	case KindBinary:
		b, res := d.TryReadBinary()
		if res != Success {
			return fmt.Errorf("msgpack: %s decoding binary", res)
		}
		writeJSONString(sb, base64.StdEncoding.EncodeToString(b))
	case KindArray:
		n, res := d.TryReadArrayHeader()
		if res != Success {
			return fmt.Errorf("msgpack: %s decoding array header", res)
		}
		sb.WriteByte('[')
		for i := 0; i < n; i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := renderJSONValue(d, sb); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case KindMap:
		n, res := d.TryReadMapHeader()
		if res != Success {
			return fmt.Errorf("msgpack: %s decoding map header", res)
		}
		sb.WriteByte('{')
		for i := 0; i < n; i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := renderJSONKey(d, sb); err != nil {
				return err
			}
			sb.WriteByte(':')
			if err := renderJSONValue(d, sb); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case KindExtension:
		return renderJSONExt(d, sb)
	default:
		return fmt.Errorf("msgpack: invalid lead byte while rendering JSON")
	}
	return nil
}

func renderJSONKey(d *Deformatter, sb *strings.Builder) error {
	if k, ok := d.PeekKind(); ok && k == KindString {
		b, res := d.TryReadString()
		if res != Success {
			return fmt.Errorf("msgpack: %s decoding map key", res)
		}
		writeJSONString(sb, string(b))
		return nil
	}
	var inner strings.Builder
	if err := renderJSONValue(d, &inner); err != nil {
		return err
	}
	writeJSONString(sb, inner.String())
	return nil
}

func renderJSONExt(d *Deformatter, sb *strings.Builder) error {
	h, payload, res := d.TryReadExt()
	if res != Success {
		return fmt.Errorf("msgpack: %s decoding extension", res)
	}
	if h.Type == ExtTimestamp {
		// Re-parse using the same three wire forms TryReadTimestamp
		// understands, without re-consuming (already consumed above).
		t, ok := decodeTimestampPayload(h.Len, payload)
		if !ok {
			return fmt.Errorf("msgpack: malformed timestamp extension")
		}
		writeJSONString(sb, t.String())
		return nil
	}
	sb.WriteString(`{"$ext":`)
	sb.WriteString(strconv.Itoa(int(h.Type)))
	sb.WriteString(`,"data":`)
	writeJSONString(sb, base64.StdEncoding.EncodeToString(payload))
	sb.WriteByte('}')
	return nil
}

func writeJSONString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}
