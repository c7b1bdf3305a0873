package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// mapResolver resolves from a fixed table keyed by namespace and name.
type mapResolver map[Identifier]string

func (m mapResolver) Resolve(ns Namespace, name string) (string, bool) {
	alias, ok := m[Identifier{ns, name}]
	return alias, ok
}

func cls(name string) Identifier { return Identifier{Class, name} }
func id(name string) Identifier  { return Identifier{ID, name} }
func cp(name string) Identifier  { return Identifier{CustomProperty, name} }

func TestExtractCSS(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want []Identifier
	}{
		{
			name: "declaration order",
			css:  `.foo{color:red}#bar{--baz:1px}.qux{margin:var(--baz)}`,
			want: []Identifier{cls("foo"), id("bar"), cp("baz"), cls("qux")},
		},
		{
			name: "combinators and pseudo classes",
			css:  `ul > li.item:hover + .next ~ #main a::before{content:""}`,
			want: []Identifier{cls("item"), cls("next"), id("main")},
		},
		{
			name: "attribute selectors are opaque",
			css:  `a[href$=".pdf"].doc[class~=skip]{}`,
			want: []Identifier{cls("doc")},
		},
		{
			name: "functional pseudo classes",
			css:  `:not(.a, .b):is(#c) .d{}`,
			want: []Identifier{cls("a"), cls("b"), id("c"), cls("d")},
		},
		{
			name: "var fallbacks",
			css:  `.x{color:var(--a, var(--b, #fff));width:calc(var(--c) * 2)}`,
			want: []Identifier{cls("x"), cp("a"), cp("b"), cp("c")},
		},
		{
			name: "hex colors are not ids",
			css:  `.a{color:#fff;background:#ABCDEF}`,
			want: []Identifier{cls("a")},
		},
		{
			name: "numbers are not classes",
			css:  `.a{margin:.5em 1.25rem}`,
			want: []Identifier{cls("a")},
		},
		{
			name: "media queries",
			css:  `@media (min-width: 600px){.a{color:red}@media print{#b{display:none}}}`,
			want: []Identifier{cls("a"), id("b")},
		},
		{
			name: "keyframe names are kept",
			css:  `@keyframes spin{from{opacity:0}50%{opacity:.5}to{opacity:1}}.s{animation:spin 1s}`,
			want: []Identifier{cls("s")},
		},
		{
			name: "at property",
			css:  `@property --angle{syntax:'<angle>';inherits:false;initial-value:0deg}`,
			want: []Identifier{cp("angle")},
		},
		{
			name: "supports selector",
			css:  `@supports selector(.a > .b){.c{}}`,
			want: []Identifier{cls("a"), cls("b"), cls("c")},
		},
		{
			name: "nesting",
			css:  `.card{color:red;&:hover{color:blue}.title{font-weight:bold}}`,
			want: []Identifier{cls("card"), cls("title")},
		},
		{
			name: "escaped class names",
			css:  `.md\:flex{display:flex}.\31 0{}`,
			want: []Identifier{cls("md:flex"), cls("10")},
		},
		{
			name: "comments and strings",
			css:  `/* .fake #nope */ .real{content:".nope #nope"}`,
			want: []Identifier{cls("real")},
		},
		{
			name: "declaration list",
			css:  `color:red;--gap:4px;margin:var(--gap)`,
			want: []Identifier{cp("gap")},
		},
		{
			name: "duplicates collapse",
			css:  `.a,.a.b,.b{}`,
			want: []Identifier{cls("a"), cls("b")},
		},
		{
			name: "empty",
			css:  ``,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractCSS(tt.css)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRewriteCSS(t *testing.T) {
	reg := mapResolver{
		cls("foo"):     "a",
		id("bar"):      "b",
		cp("baz"):      "c",
		cls("qux"):     "d",
		cls("md:flex"): "e",
	}

	tests := []struct {
		name string
		css  string
		want string
	}{
		{
			name: "selectors and properties",
			css:  `.foo{color:red}#bar{--baz:1px}.qux{margin:var(--baz)}`,
			want: `.a{color:red}#b{--c:1px}.d{margin:var(--c)}`,
		},
		{
			name: "unknown names pass through",
			css:  `.foo .other #bar #other{--baz:1;--other:2;x:var(--other)}`,
			want: `.a .other #b #other{--c:1;--other:2;x:var(--other)}`,
		},
		{
			name: "fallback untouched",
			css:  `.x{color:var(--baz, var(--other, red))}`,
			want: `.x{color:var(--c, var(--other, red))}`,
		},
		{
			name: "formatting and comments kept",
			css:  "/* header */\n.foo ,\n.qux:hover  >  #bar {\n  color : red ; /* .foo */\n}\n",
			want: "/* header */\n.a ,\n.d:hover  >  #b {\n  color : red ; /* .foo */\n}\n",
		},
		{
			name: "escaped name",
			css:  `.md\:flex{display:flex}`,
			want: `.e{display:flex}`,
		},
		{
			name: "namespaces are independent",
			css:  `#foo.bar{}`,
			want: `#foo.bar{}`,
		},
		{
			name: "attribute selectors are opaque",
			css:  `[class=foo].foo[id="bar"]{}`,
			want: `[class=foo].a[id="bar"]{}`,
		},
		{
			name: "keyframes untouched",
			css:  `@keyframes foo{from{--baz:0}}`,
			want: `@keyframes foo{from{--c:0}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteCSS(tt.css, reg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRewriteCSS_Discovering(t *testing.T) {
	reg := NewRegistry()
	out, err := RewriteCSS(`.foo{color:red}#bar{--baz:1px}.qux{margin:var(--baz)}`, reg.Discovering())
	require.NoError(t, err)
	assert.Equal(t, `.a{color:red}#b{--c:1px}.d{margin:var(--c)}`, out)

	assert.Equal(t, Mapping{
		{Class, "foo", "a"},
		{ID, "bar", "b"},
		{CustomProperty, "baz", "c"},
		{Class, "qux", "d"},
	}, reg.Mapping())
}

// grammarShape lists the grammar types of a stylesheet with the token types
// of their values, plus at-rule and declaration names.
func grammarShape(src string) ([]string, bool) {
	p := css.NewParser(parse.NewInputString(src), false)
	var shape []string
	for {
		gt, _, data := p.Next()
		if gt == css.ErrorGrammar {
			return shape, !p.HasParseError()
		}
		entry := gt.String()
		if gt == css.DeclarationGrammar || gt == css.BeginAtRuleGrammar || gt == css.AtRuleGrammar {
			entry += ":" + string(data)
		}
		for _, v := range p.Values() {
			entry += " " + v.TokenType.String()
		}
		shape = append(shape, entry)
	}
}

func TestRewriteCSS_KeepsStructure(t *testing.T) {
	tests := []struct {
		name string
		css  string
	}{
		{"selectors and custom properties", `.foo{color:red}#bar{--baz:1px}.qux{margin:var(--baz)}`},
		{"media and combinators", `@media (min-width:600px){.nav > .item:hover,#main .item::before{color:red}}`},
		{"nested var fallbacks", `:root{--brand:#ff0000}.btn{background:var(--brand, var(--fallback, blue))}`},
		{"keyframes", `@keyframes spin{from{--angle:0deg}to{--angle:360deg}}.spin{animation:spin 1s}`},
		{"attribute selectors", `a[data-x=foo].foo:not(.bar){margin:0}`},
		{"escaped class", `.md\:flex{display:flex}`},
		{"comments and strings", `/* .foo */ #app{content:".foo"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			out, err := RewriteCSS(tt.css, reg.Discovering())
			require.NoError(t, err)
			require.NotEqual(t, tt.css, out)

			before, ok := grammarShape(tt.css)
			require.True(t, ok, "input does not parse")
			after, ok := grammarShape(out)
			require.True(t, ok, "output does not parse: %s", out)
			assert.Equal(t, before, after)
		})
	}
}

func TestCSSParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		css     string
		message string
	}{
		{"missing brace", `.a{color:red`, "missing '}'"},
		{"extra brace", `.a{}}`, "unexpected '}'"},
		{"unterminated comment", `.a{} /* open`, "unterminated comment"},
		{"unterminated string", ".a{content:\"abc\n}", "unterminated string"},
		{"unbalanced bracket", `.a]{}`, "unexpected ']'"},
		{"unclosed selector function", `:not(.a{}`, "unexpected end of input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := ExtractCSS(tt.css)
			require.Error(t, err)
			assert.Nil(t, ids)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Message, tt.message)
			assert.GreaterOrEqual(t, perr.Line, 1)
			assert.GreaterOrEqual(t, perr.Column, 1)
		})
	}
}

func TestRewriteCSS_ErrorLeavesSourceAndSkipsResolver(t *testing.T) {
	called := false
	r := ResolverFunc(func(Namespace, string) (string, bool) {
		called = true
		return "z", true
	})

	src := `.a{color:red`
	out, err := RewriteCSS(src, r)
	require.Error(t, err)
	assert.Equal(t, src, out)
	assert.False(t, called)
}

func TestCSSParseError_Position(t *testing.T) {
	src := ".a{color:red}\n.b{"
	_, err := ExtractCSS(src)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 4, perr.Column)
	assert.Equal(t, len(src), perr.Offset)
	assert.Contains(t, perr.Context, ".b{")
}
