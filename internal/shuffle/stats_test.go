package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		path string
		want FileKind
		ok   bool
	}{
		{"style.css", KindCSS, true},
		{"a/b/INDEX.HTML", KindHTML, true},
		{"legacy.htm", KindHTML, true},
		{"icons/logo.svg", KindSVG, true},
		{"app.js", "", false},
		{"README", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := KindOf(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestFileStat(t *testing.T) {
	tests := []struct {
		name    string
		stat    FileStat
		changed bool
		saved   int
		reduced int
	}{
		{"quarter", FileStat{OriginalSize: 200, NewSize: 150}, true, 50, 25},
		{"truncated", FileStat{OriginalSize: 3, NewSize: 2}, true, 1, 33},
		{"unchanged", FileStat{OriginalSize: 10, NewSize: 10}, false, 0, 0},
		{"empty", FileStat{}, false, 0, 0},
		{"grown", FileStat{OriginalSize: 10, NewSize: 12}, true, -2, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.changed, tt.stat.Changed())
			assert.Equal(t, tt.saved, tt.stat.Saved())
			assert.Equal(t, tt.reduced, tt.stat.Reduced())
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{999, "999 B"},
		{1000, "1 kB"},
		{1234, "1.23 kB"},
		{45_600_000, "45.6 MB"},
		{999_999, "1 MB"},
		{-1500, "-1.5 kB"},
		{-20, "-20 B"},
		{9_999_999, "10 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.n))
		})
	}
}
