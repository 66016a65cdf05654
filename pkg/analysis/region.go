/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: region.go
Description: Region validation for the variable section. Decides whether an
(offset, element size, element count) triple read from a row lies entirely inside the
variable buffer and past its reserved marker, failing closed on integer overflow.
*/

package analysis

import "math/bits"

// IsValidRegion reports whether offset >= ReservedHeader and
// offset + elemLen*count <= bufLen. An overflowing product or sum is invalid.
func IsValidRegion(offset, elemLen, count uint64, bufLen int) bool {
	if bufLen < 0 || offset < ReservedHeader {
		return false
	}
	hi, total := bits.Mul64(elemLen, count)
	if hi != 0 {
		return false
	}
	end, carry := bits.Add64(offset, total, 0)
	if carry != 0 {
		return false
	}
	return end <= uint64(bufLen)
}
