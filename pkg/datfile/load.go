/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: load.go
Description: Loading dat files from disk. Files ending in .zst are decompressed with
zstd before framing so extracted game tables can be kept compressed.
*/

package datfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/kleascm/datprobe/pkg/analysis"
)

const zstdExt = ".zst"

// Load reads and parses the dat file at path. See Parse for width.
func Load(path string, width analysis.PointerWidth) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dat file: %w", err)
	}

	name := path
	if strings.HasSuffix(strings.ToLower(path), zstdExt) {
		content, err = decompress(content)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		name = path[:len(path)-len(zstdExt)]
	}

	f, err := Parse(name, content, width)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// Compress returns data as a zstd frame, the inverse of what Load expects for
// .zst inputs.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
