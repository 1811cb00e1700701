package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	Kilo = 1 << 10
	Mega = 1 << 20
	Giga = 1 << 30
	Tera = 1 << 40
)

// BytesPerValue is the size of one pixel value as held in memory and storage.
const BytesPerValue = 8

// ParseByteSize parses sizes like "64 MiB", "4M" or "1000".  An empty string is zero.
func ParseByteSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("can't parse size %q: %v", s, err)
	}
	return n, nil
}

// ConvertToAbsolute returns an absolute path for a path given relative to dir.
func ConvertToAbsolute(path, dir string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Abs(filepath.Join(dir, path))
}
