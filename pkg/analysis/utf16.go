/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utf16.go
Description: UTF-16LE string recognizer. Walks code units from a start offset and
accepts only a well-formed sequence (surrogates paired) that reaches a double-NUL
terminator before the end of the buffer. Nothing is decoded.
*/

package analysis

const (
	highSurrogateMin = 0xD800
	highSurrogateMax = 0xDBFF
	lowSurrogateMin  = 0xDC00
	lowSurrogateMax  = 0xDFFF
)

// IsUTF16StringAt reports whether buf holds a valid UTF-16LE string starting at
// start and terminated by four zero bytes that fit before the end of buf.
func IsUTF16StringAt(buf []byte, start uint64) bool {
	return view(buf).isUTF16StringAt(start)
}

func (v view) isUTF16StringAt(pos uint64) bool {
	end := uint64(len(v))
	for {
		// the terminator itself must fit
		if pos >= end || end-pos < StringTerminator {
			return false
		}
		c1, err := v.uint16At(pos)
		if err != nil {
			return false
		}
		c2, err := v.uint16At(pos + 2)
		if err != nil {
			return false
		}
		if c1 == 0 && c2 == 0 {
			return true
		}

		switch {
		case c1 >= highSurrogateMin && c1 <= highSurrogateMax:
			if c2 < lowSurrogateMin || c2 > lowSurrogateMax {
				return false
			}
			pos += 4
		case c1 >= lowSurrogateMin && c1 <= lowSurrogateMax:
			// unpaired low surrogate
			return false
		default:
			pos += 2
		}
	}
}
