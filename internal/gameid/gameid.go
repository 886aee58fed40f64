// Package gameid issues sortable identifiers for tables and hands:
// a UUIDv7 payload rendered as 26 characters of Crockford base32 with
// a short type prefix, e.g. "tbl_01h455vb4pex5vsknk084sn02q".
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Crockford's base32 alphabet.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

const suffixLen = 26

// Prefixes for the identifier types the server issues.
const (
	TablePrefix = "tbl"
	HandPrefix  = "hand"
)

// RandSource supplies random bytes for the identifier payload.
// Injected so tests can generate stable IDs.
type RandSource interface {
	Intn(n int) int
}

// Generator issues identifiers with a fixed prefix.
type Generator struct {
	prefix string
	src    RandSource
}

// NewGenerator creates a generator for the given prefix. A nil src
// uses crypto/rand.
func NewGenerator(prefix string, src RandSource) *Generator {
	return &Generator{prefix: prefix, src: src}
}

// NewTableID issues a table identifier.
func NewTableID() string { return NewGenerator(TablePrefix, nil).Generate() }

// NewHandID issues a hand identifier.
func NewHandID() string { return NewGenerator(HandPrefix, nil).Generate() }

// Generate issues the next identifier. IDs generated in the same
// process sort roughly by creation time thanks to the UUIDv7 leading
// timestamp.
func (g *Generator) Generate() string {
	return g.prefix + "_" + encodeBase32(g.uuidv7())
}

// uuidv7 builds a 128-bit UUIDv7: 48-bit millisecond timestamp,
// version and variant bits, the rest random.
func (g *Generator) uuidv7() [16]byte {
	var id [16]byte

	now := time.Now().UnixMilli()
	id[0] = byte(now >> 40)
	id[1] = byte(now >> 32)
	id[2] = byte(now >> 24)
	id[3] = byte(now >> 16)
	id[4] = byte(now >> 8)
	id[5] = byte(now)

	if g.src != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.src.Intn(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("gameid: crypto/rand failed: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // variant 10

	return id
}

// encodeBase32 renders 128 bits as 26 base32 characters, five bits per
// character, reading the bytes big-endian.
func encodeBase32(data [16]byte) string {
	out := make([]byte, suffixLen)
	for i := 0; i < suffixLen; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var v uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				v = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				v = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					v |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// Validate checks that id carries the expected prefix and a
// well-formed base32 suffix.
func Validate(id, prefix string) error {
	suffix, ok := strings.CutPrefix(id, prefix+"_")
	if !ok {
		return fmt.Errorf("identifier %q missing prefix %q", id, prefix)
	}
	if len(suffix) != suffixLen {
		return fmt.Errorf("identifier suffix must be %d characters, got %d", suffixLen, len(suffix))
	}
	// The leading character encodes the top 2 bits of a 130-bit frame
	// holding 128 bits of payload, so it cannot exceed '7'.
	if suffix[0] > '7' {
		return fmt.Errorf("identifier suffix starts with %q, want 0-7", suffix[0])
	}
	for i, c := range suffix {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %q at position %d", c, i)
		}
	}
	return nil
}
