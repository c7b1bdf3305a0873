package shuffle

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleMapping = Mapping{
	{Class, "foo", "a"},
	{ID, "bar", "b"},
	{CustomProperty, "baz", "c"},
	{ID, "foo", "d"},
}

func TestMapping_WriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleMapping[:1].WriteJSON(&buf))

	assert.Equal(t, `[
  {
    "namespace": "class",
    "original": "foo",
    "alias": "a"
  }
]
`, buf.String())
}

func TestMapping_WriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleMapping[:2].WriteYAML(&buf))

	assert.Equal(t, `- namespace: class
  original: foo
  alias: a
- namespace: id
  original: bar
  alias: b
`, buf.String())
}

func TestMapping_RoundTrip(t *testing.T) {
	for _, format := range []MappingFormat{MappingJSON, MappingYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, sampleMapping.Write(&buf, format))

			got, err := ReadMapping(&buf)
			require.NoError(t, err)
			assert.Equal(t, sampleMapping, got)
		})
	}
}

func TestMapping_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Mapping(nil).WriteJSON(&buf))
	assert.Equal(t, "[]\n", buf.String())

	got, err := ReadMapping(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadMapping_Invalid(t *testing.T) {
	_, err := ReadMapping(strings.NewReader("- namespace: element\n  original: x\n  alias: a\n"))
	require.Error(t, err)

	_, err = ReadMapping(strings.NewReader("not: [a list"))
	require.Error(t, err)
}

func TestMapping_WriteUnknownFormat(t *testing.T) {
	err := sampleMapping.Write(&bytes.Buffer{}, MappingFormat("toml"))
	require.Error(t, err)
}

func TestMapping_Filter(t *testing.T) {
	assert.Equal(t, Mapping{{ID, "bar", "b"}, {ID, "foo", "d"}}, sampleMapping.Filter(ID))
	assert.Nil(t, Mapping{{Class, "foo", "a"}}.Filter(CustomProperty))
}

func TestMapping_ForwardReverse(t *testing.T) {
	forward := sampleMapping.Forward()
	assert.Equal(t, "a", forward[Class]["foo"])
	assert.Equal(t, "d", forward[ID]["foo"])
	assert.Equal(t, "c", forward[CustomProperty]["baz"])

	reverse := sampleMapping.Reverse()
	assert.Equal(t, "foo", reverse[Class]["a"])
	assert.Equal(t, "bar", reverse[ID]["b"])
	assert.Equal(t, "foo", reverse[ID]["d"])
	_, ok := reverse[Class]["d"]
	assert.False(t, ok)
}

func TestParseMappingFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    MappingFormat
		wantErr bool
	}{
		{"", MappingJSON, false},
		{"json", MappingJSON, false},
		{"YAML", MappingYAML, false},
		{"yml", MappingYAML, false},
		{"toml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMappingFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNamespace(t *testing.T) {
	for _, ns := range Namespaces {
		got, err := ParseNamespace(ns.String())
		require.NoError(t, err)
		assert.Equal(t, ns, got)
	}

	got, err := ParseNamespace("var")
	require.NoError(t, err)
	assert.Equal(t, CustomProperty, got)

	_, err = ParseNamespace("element")
	require.Error(t, err)

	_, err = Namespace(0).MarshalText()
	require.Error(t, err)
}

func TestIdentifierString(t *testing.T) {
	assert.Equal(t, ".foo", cls("foo").String())
	assert.Equal(t, "#bar", id("bar").String())
	assert.Equal(t, "--baz", cp("baz").String())
}
