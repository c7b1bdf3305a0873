package shuffle

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FileKind is the document type of an input file.
type FileKind string

// File kinds.
const (
	KindCSS  FileKind = "css"
	KindHTML FileKind = "html"
	KindSVG  FileKind = "svg"
)

// KindOf returns the kind of path by extension.
func KindOf(path string) (FileKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return KindCSS, true
	case ".html", ".htm":
		return KindHTML, true
	case ".svg":
		return KindSVG, true
	}
	return "", false
}

// FileStat records the size of one processed file before and after rewriting.
type FileStat struct {
	Path         string   `json:"path"`
	Kind         FileKind `json:"kind"`
	OriginalSize int      `json:"original_size"`
	NewSize      int      `json:"new_size"`
	Rewritten    bool     `json:"rewritten"`
}

// Changed reports whether rewriting altered the file size.
func (s FileStat) Changed() bool {
	return s.OriginalSize != s.NewSize
}

// Saved returns the number of bytes removed.
func (s FileStat) Saved() int {
	return s.OriginalSize - s.NewSize
}

// Reduced returns the size reduction as a truncated whole percentage.
func (s FileStat) Reduced() int {
	if s.OriginalSize == 0 {
		return 0
	}
	return s.Saved() * 100 / s.OriginalSize
}

var byteUnits = []string{"B", "kB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n in decimal units with three significant digits,
// e.g. "512 B", "1.23 kB", "45.6 MB". humanize.Bytes keeps only one decimal
// ("1.2 kB"), so the value is rounded here and only formatted by humanize.
func FormatBytes(n int) string {
	neg := n < 0
	v := float64(n)
	if neg {
		v = -v
	}
	if v < 1000 {
		return fmt.Sprintf("%d B", n)
	}

	unit := 0
	for v >= 1000 && unit < len(byteUnits)-1 {
		v /= 1000
		unit++
	}
	// round to three significant digits, then drop trailing zeros
	v, _ = strconv.ParseFloat(strconv.FormatFloat(v, 'g', 3, 64), 64)
	if v >= 1000 && unit < len(byteUnits)-1 {
		v /= 1000
		unit++
	}
	s := humanize.Ftoa(v)
	if neg {
		s = "-" + s
	}
	return s + " " + byteUnits[unit]
}
