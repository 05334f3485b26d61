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
	"math/big"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/msgpack-wire/msgpack/mptime"
)

func TestTimeRoundTrip(t *testing.T) {
	v := time.Date(2024, time.March, 15, 8, 30, 0, 0, time.UTC)
	buf, err := Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	var out time.Time
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Equal(v) {
		t.Errorf("round-trip mismatch: got %v, want %v", out, v)
	}
}

func TestMptimeRoundTrip(t *testing.T) {
	v := mptime.Date(2023, 7, 4, 12, 0, 0, 5000)
	buf, err := Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	var out mptime.Time
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Equal(v) {
		t.Errorf("round-trip mismatch: got %v, want %v", out, v)
	}
}

func TestOldSpecCompatibilityRefusesTimestamp(t *testing.T) {
	_, err := Serialize(time.Now(), WithOldSpecCompatibility(true))
	if err == nil {
		t.Fatal("expected an error encoding a timestamp under old-spec compatibility")
	}
}

func TestOldSpecCompatibilityEncodesBinaryAsString(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	buf, err := Serialize(payload, WithOldSpecCompatibility(true))
	if err != nil {
		t.Fatal(err)
	}
	if buf[0] != byte(mpFixstrPrefix|len(payload)) {
		t.Errorf("expected a 3-byte fixstr lead byte under old-spec compatibility, got 0x%02x", buf[0])
	}

	var out []byte
	if err := Deserialize(buf, &out, WithOldSpecCompatibility(true)); err != nil {
		t.Fatal(err)
	}
	if string(out) != string(payload) {
		t.Errorf("round-trip mismatch: got % x, want % x", out, payload)
	}

	// A buffer produced without old-spec compatibility should still
	// decode correctly under TryReadBinaryCompat's bin-family fallback.
	normalBuf, err := Serialize(payload)
	if err != nil {
		t.Fatal(err)
	}
	var out2 []byte
	if err := Deserialize(normalBuf, &out2, WithOldSpecCompatibility(true)); err != nil {
		t.Fatal(err)
	}
	if string(out2) != string(payload) {
		t.Errorf("fallback round-trip mismatch: got % x, want % x", out2, payload)
	}
}

func TestBigIntRoundTrip(t *testing.T) {
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(12345),
		big.NewInt(-98765),
	}
	huge := new(big.Int)
	huge.SetString("123456789012345678901234567890", 10)
	cases = append(cases, huge, new(big.Int).Neg(huge))

	for _, c := range cases {
		buf, err := Serialize(*c)
		if err != nil {
			t.Fatal(err)
		}
		var out big.Int
		if err := Deserialize(buf, &out); err != nil {
			t.Fatal(err)
		}
		if out.Cmp(c) != 0 {
			t.Errorf("round-trip mismatch: got %v, want %v", &out, c)
		}
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	unscaled := big.NewInt(-314159)
	v := Decimal{Unscaled: *unscaled, Scale: 5}
	buf, err := Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	var out Decimal
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.Scale != v.Scale || out.Unscaled.Cmp(&v.Unscaled) != 0 {
		t.Errorf("round-trip mismatch: got %+v, want %+v", out, v)
	}
}

func TestURLRoundTrip(t *testing.T) {
	u, err := url.Parse("https://example.com/path?q=1")
	if err != nil {
		t.Fatal(err)
	}
	buf, err := Serialize(*u)
	if err != nil {
		t.Fatal(err)
	}
	var out url.URL
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != u.String() {
		t.Errorf("round-trip mismatch: got %v, want %v", out.String(), u.String())
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	buf, err := Serialize(id)
	if err != nil {
		t.Fatal(err)
	}
	var out uuid.UUID
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out != id {
		t.Errorf("round-trip mismatch: got %v, want %v", out, id)
	}
}
