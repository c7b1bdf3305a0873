package shuffle

import (
	"bytes"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// cssToken is one lexer token. ns is set when the token names an identifier.
type cssToken struct {
	tt   css.TokenType
	data []byte
	off  int
	ns   Namespace
	name string
}

// replacement returns the text written in place of the token for alias.
func (t *cssToken) replacement(alias string) string {
	switch t.ns {
	case ID:
		return "#" + alias
	case CustomProperty:
		return "--" + alias
	}
	return alias
}

// syntaxError is a failure at a byte offset of the fragment being scanned.
type syntaxError struct {
	offset int
	msg    string
}

// cssScanner splits a fragment into rules, at-rules and declarations and
// marks the tokens that name classes, ids and custom properties.
//
// Concatenating the data of every token reproduces the fragment exactly,
// which is what lets the rewriter splice aliases without reformatting.
type cssScanner struct {
	toks []cssToken
	pos  int
	size int
	err  *syntaxError
}

// scanCSS tokenizes and classifies a stylesheet or a declaration list.
func scanCSS(src string) ([]cssToken, *syntaxError) {
	s := &cssScanner{size: len(src)}
	if err := s.lex(src); err != nil {
		return nil, err
	}
	s.rules(false)
	if s.err != nil {
		return nil, s.err
	}
	return s.toks, nil
}

func (s *cssScanner) lex(src string) *syntaxError {
	l := css.NewLexer(parse.NewInputString(src))
	off := 0
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return &syntaxError{off, lexerMessage(err)}
			}
			return nil
		}

		switch tt {
		case css.BadStringToken:
			return &syntaxError{off, "unterminated string"}
		case css.BadURLToken:
			return &syntaxError{off, "malformed url()"}
		case css.CommentToken:
			if len(data) < 4 || !bytes.HasSuffix(data, []byte("*/")) {
				return &syntaxError{off, "unterminated comment"}
			}
		case css.StringToken:
			if off+len(data) == len(src) && !closedString(data) {
				return &syntaxError{off, "unterminated string"}
			}
		}

		s.toks = append(s.toks, cssToken{tt: tt, data: data, off: off})
		off += len(data)
	}
}

// closedString reports whether a string token ends with its unescaped quote.
func closedString(data []byte) bool {
	n := len(data)
	if n < 2 || data[n-1] != data[0] {
		return false
	}
	backslashes := 0
	for i := n - 2; i > 0 && data[i] == '\\'; i-- {
		backslashes++
	}
	return backslashes%2 == 0
}

func (s *cssScanner) fail(offset int, msg string) {
	if s.err == nil {
		s.err = &syntaxError{offset, msg}
	}
}

// at returns the type of token i, or ErrorToken past the end.
func (s *cssScanner) at(i int) css.TokenType {
	if i < len(s.toks) {
		return s.toks[i].tt
	}
	return css.ErrorToken
}

func (s *cssScanner) offset(i int) int {
	if i < len(s.toks) {
		return s.toks[i].off
	}
	return s.size
}

func isTrivia(tt css.TokenType) bool {
	return tt == css.WhitespaceToken || tt == css.CommentToken || tt == css.CDOToken || tt == css.CDCToken
}

func (s *cssScanner) significant(i int) int {
	for isTrivia(s.at(i)) {
		i++
	}
	return i
}

// rules consumes a list of rules, at-rules and declarations up to the
// closing brace of the enclosing block (nested) or the end of input.
func (s *cssScanner) rules(nested bool) {
	for s.err == nil {
		s.pos = s.significant(s.pos)
		switch s.at(s.pos) {
		case css.ErrorToken:
			if nested {
				s.fail(s.size, "unexpected end of input, missing '}'")
			}
			return
		case css.RightBraceToken:
			if !nested {
				s.fail(s.offset(s.pos), "unexpected '}'")
				return
			}
			s.pos++
			return
		case css.SemicolonToken:
			s.pos++
		case css.AtKeywordToken:
			s.atRule()
		default:
			if s.customPropertyAhead() {
				s.declaration()
			} else if brace := s.ruleBrace(); brace >= 0 {
				s.rule(brace)
			} else {
				s.declaration()
			}
		}
	}
}

// customPropertyAhead reports whether the current statement declares a custom property.
func (s *cssScanner) customPropertyAhead() bool {
	return s.at(s.pos) == css.CustomPropertyNameToken &&
		s.at(s.significant(s.pos+1)) == css.ColonToken
}

// ruleBrace returns the index of the '{' opening a qualified rule at the
// current position, or -1 when the statement is a declaration.
func (s *cssScanner) ruleBrace() int {
	depth := 0
	for i := s.pos; ; i++ {
		switch s.at(i) {
		case css.ErrorToken:
			return -1
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken:
			if depth == 0 {
				return i
			}
		case css.SemicolonToken, css.RightBraceToken:
			if depth == 0 {
				return -1
			}
		}
	}
}

func (s *cssScanner) rule(brace int) {
	s.selector(s.pos, brace)
	if s.err != nil {
		return
	}
	s.pos = brace + 1
	s.rules(true)
}

// selector marks class and id components in toks[start:end].
// Attribute selector contents are never identifiers.
func (s *cssScanner) selector(start, end int) {
	parens, brackets := 0, 0
	for i := start; i < end; i++ {
		t := &s.toks[i]
		switch t.tt {
		case css.LeftBracketToken:
			brackets++
		case css.RightBracketToken:
			if brackets == 0 {
				s.fail(t.off, "unexpected ']' in selector")
				return
			}
			brackets--
		case css.FunctionToken, css.LeftParenthesisToken:
			parens++
		case css.RightParenthesisToken:
			if parens == 0 {
				s.fail(t.off, "unexpected ')' in selector")
				return
			}
			parens--
		case css.DelimToken:
			if brackets > 0 || t.data[0] != '.' || i+1 >= end {
				continue
			}
			if next := &s.toks[i+1]; next.tt == css.IdentToken || next.tt == css.CustomPropertyNameToken {
				next.ns = Class
				next.name = unescapeIdent(next.data)
				i++
			}
		case css.HashToken:
			if brackets == 0 && css.IsIdent(t.data[1:]) {
				t.ns = ID
				t.name = unescapeIdent(t.data[1:])
			}
		}
	}
	if brackets > 0 {
		s.fail(s.offset(end), "unclosed '[' in selector")
	} else if parens > 0 {
		s.fail(s.offset(end), "unclosed '(' in selector")
	}
}

// declaration consumes one declaration, marking a custom property name and
// the first argument of every var() call.
func (s *cssScanner) declaration() {
	if s.customPropertyAhead() {
		s.markCustomProperty(s.pos)
	}

	parens, brackets, braces := 0, 0, 0
	for i := s.pos; ; i++ {
		switch s.at(i) {
		case css.ErrorToken:
			if parens > 0 || brackets > 0 || braces > 0 {
				s.fail(s.size, "unexpected end of input inside declaration")
			}
			s.pos = i
			return
		case css.SemicolonToken:
			if parens == 0 && brackets == 0 && braces == 0 {
				s.pos = i + 1
				return
			}
		case css.LeftBraceToken:
			braces++
		case css.RightBraceToken:
			if braces == 0 {
				if parens > 0 || brackets > 0 {
					s.fail(s.offset(i), "unclosed parenthesis before '}'")
				}
				s.pos = i
				return
			}
			braces--
		case css.FunctionToken:
			parens++
			if bytes.EqualFold(s.toks[i].data, []byte("var(")) {
				if j := s.significant(i + 1); s.at(j) == css.CustomPropertyNameToken {
					s.markCustomProperty(j)
				}
			}
		case css.LeftParenthesisToken:
			parens++
		case css.RightParenthesisToken:
			if parens == 0 {
				s.fail(s.offset(i), "unexpected ')'")
				return
			}
			parens--
		case css.LeftBracketToken:
			brackets++
		case css.RightBracketToken:
			if brackets == 0 {
				s.fail(s.offset(i), "unexpected ']'")
				return
			}
			brackets--
		}
	}
}

func (s *cssScanner) markCustomProperty(i int) {
	t := &s.toks[i]
	if name := unescapeIdent(t.data[2:]); name != "" {
		t.ns = CustomProperty
		t.name = name
	}
}

// atRule consumes an at-rule with its prelude and optional block.
func (s *cssScanner) atRule() {
	name := strings.ToLower(unescapeIdent(s.toks[s.pos].data[1:]))
	s.pos++

	start := s.pos
	end, term := s.preludeEnd(start)
	s.prelude(name, start, end)
	if s.err != nil {
		return
	}

	switch term {
	case css.SemicolonToken:
		s.pos = end + 1
	case css.LeftBraceToken:
		s.pos = end + 1
		s.rules(true)
	default:
		s.pos = end
	}
}

func (s *cssScanner) preludeEnd(start int) (int, css.TokenType) {
	depth := 0
	for i := start; ; i++ {
		switch tt := s.at(i); tt {
		case css.ErrorToken:
			return i, tt
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.SemicolonToken, css.LeftBraceToken, css.RightBraceToken:
			if depth == 0 {
				return i, tt
			}
		}
	}
}

// prelude handles the at-rule preludes that contain identifiers: @scope
// takes selectors, @property declares a custom property and selector()
// conditions hold a selector. Everything else is only checked for balance.
func (s *cssScanner) prelude(name string, start, end int) {
	if name == "scope" {
		s.selector(start, end)
		return
	}
	if name == "property" {
		if j := s.significant(start); j < end && s.at(j) == css.CustomPropertyNameToken {
			s.markCustomProperty(j)
		}
	}

	depth := 0
	for i := start; i < end; i++ {
		switch s.toks[i].tt {
		case css.FunctionToken:
			if bytes.EqualFold(s.toks[i].data, []byte("selector(")) {
				closing := s.matchingParen(i, end)
				if closing < 0 {
					s.fail(s.offset(i), "unclosed selector()")
					return
				}
				s.selector(i+1, closing)
				if s.err != nil {
					return
				}
				i = closing
				continue
			}
			depth++
		case css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth == 0 {
				s.fail(s.offset(i), "unexpected "+string(s.toks[i].data)+" in @"+name)
				return
			}
			depth--
		}
	}
	if depth > 0 {
		s.fail(s.offset(end), "unclosed parenthesis in @"+name)
	}
}

// matchingParen returns the index of the ')' closing the function at open.
func (s *cssScanner) matchingParen(open, end int) int {
	depth := 1
	for i := open + 1; i < end; i++ {
		switch s.toks[i].tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// identifiersOf lists the marked identifiers in document order.
func identifiersOf(toks []cssToken) []Identifier {
	var set identifierSet
	for i := range toks {
		if toks[i].ns != 0 {
			set.add(toks[i].ns, toks[i].name)
		}
	}
	return set.items
}

// renderCSS writes toks back out, substituting the identifiers r resolves.
func renderCSS(src string, toks []cssToken, r Resolver) string {
	var b strings.Builder
	b.Grow(len(src))
	changed := false
	for i := range toks {
		t := &toks[i]
		if t.ns != 0 {
			if alias, ok := r.Resolve(t.ns, t.name); ok {
				b.WriteString(t.replacement(alias))
				changed = true
				continue
			}
		}
		b.Write(t.data)
	}
	if !changed {
		return src
	}
	return b.String()
}

// ExtractCSS returns the class, id and custom-property identifiers that a
// stylesheet or declaration list declares or references, in the order they
// first appear.
func ExtractCSS(src string) ([]Identifier, error) {
	toks, serr := scanCSS(src)
	if serr != nil {
		return nil, newParseError([]byte(src), serr.offset, serr.msg)
	}
	return identifiersOf(toks), nil
}

// RewriteCSS replaces every identifier in src that r resolves. Names r does
// not resolve are written unchanged. On a parse error src is returned as is
// and r is never consulted.
func RewriteCSS(src string, r Resolver) (string, error) {
	toks, serr := scanCSS(src)
	if serr != nil {
		return src, newParseError([]byte(src), serr.offset, serr.msg)
	}
	return renderCSS(src, toks, r), nil
}
