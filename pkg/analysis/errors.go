/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Sentinel errors for the dat analysis package.
*/

package analysis

import "errors"

var (
	ErrInvalidWidth     = errors.New("pointer width must be 4 or 8")
	ErrInvalidRowLength = errors.New("row length must not be negative")
	ErrOutOfBounds      = errors.New("read out of bounds")
)
