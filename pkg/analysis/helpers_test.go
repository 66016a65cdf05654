/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: helpers_test.go
Description: Buffer builders shared by the analysis tests.
*/

package analysis

import (
	"bytes"
	"encoding/binary"
)

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// marker is the reserved 0xBB block opening every variable section.
func marker() []byte {
	return bytes.Repeat([]byte{0xBB}, ReservedHeader)
}

// utf16z encodes an ASCII string as UTF-16LE followed by the double-NUL terminator.
func utf16z(s string) []byte {
	var out []byte
	for _, r := range s {
		out = append(out, u16(uint16(r))...)
	}
	return append(out, 0, 0, 0, 0)
}

const null32 = 0xFEFEFEFE
