package shuffle

import (
	"bytes"
	"errors"
	stdhtml "html"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"
	"github.com/tdewolff/parse/v2/xml"
)

// siteKind identifies what a span of markup holds.
type siteKind int

const (
	siteStyleBlock siteKind = iota + 1 // contents of a <style> element
	siteClass                          // class attribute
	siteID                             // id attribute
	siteIDRef                          // for attribute
	siteFragment                       // href and xlink:href attributes
	siteStyleAttr                      // style attribute
)

// htmlSite is a span of the document whose value may be rewritten.
// Sites never overlap and are listed in document order.
type htmlSite struct {
	kind     siteKind
	start    int
	end      int
	entities bool // the value may contain character references
}

// HTMLOptions controls markup rewriting.
type HTMLOptions struct {
	// InlineStyles rewrites style attributes as declaration lists.
	InlineStyles bool
}

// HTMLIdentifiers is what discovery learns from one HTML or SVG document.
type HTMLIdentifiers struct {
	// Styles are declared or referenced by <style> elements, in document order.
	Styles []Identifier
	// Markup are the names used by class, id, for and fragment link attributes.
	Markup []Identifier
	// Inline are declared or referenced by style attributes.
	Inline []Identifier
}

// scanHTML locates the rewritable sites of an HTML document, descending into
// inline <svg> and <math> islands.
func scanHTML(src []byte) ([]htmlSite, *syntaxError) {
	// the lexer lowercases tag and attribute names in place
	buf := make([]byte, len(src), len(src)+1)
	copy(buf, src)
	in := parse.NewInputBytes(buf)
	l := html.NewLexer(in)

	var sites []htmlSite
	rawStyle := false
	for {
		tt, data := l.Next()
		switch tt {
		case html.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, &syntaxError{in.Offset(), lexerMessage(err)}
			}
			return sites, nil
		case html.StartTagToken:
			rawStyle = bytes.Equal(l.Text(), []byte("style"))
		case html.AttributeToken:
			if site, ok := attributeSite(l.AttrKey(), l.AttrVal(), in.Offset()); ok {
				sites = append(sites, site)
			}
		case html.StartTagCloseToken, html.StartTagVoidToken:
		case html.TextToken:
			if rawStyle {
				sites = append(sites, htmlSite{kind: siteStyleBlock, start: in.Offset() - len(data), end: in.Offset()})
			}
			rawStyle = false
		case html.SVGToken, html.MathToken:
			end := in.Offset()
			start := end - len(data)
			inner, serr := scanXML(src[start:end])
			if serr != nil {
				return nil, &syntaxError{start + serr.offset, serr.msg}
			}
			for _, site := range inner {
				site.start += start
				site.end += start
				sites = append(sites, site)
			}
			rawStyle = false
		default:
			rawStyle = false
		}
	}
}

// scanXML locates the rewritable sites of an SVG or MathML document.
func scanXML(src []byte) ([]htmlSite, *syntaxError) {
	// the lexer replaces newlines in attribute values in place
	buf := make([]byte, len(src), len(src)+1)
	copy(buf, src)
	in := parse.NewInputBytes(buf)
	l := xml.NewLexer(in)

	var sites []htmlSite
	inStyle := false
	for {
		tt, data := l.Next()
		switch tt {
		case xml.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, &syntaxError{in.Offset(), lexerMessage(err)}
			}
			return sites, nil
		case xml.StartTagToken:
			name := l.Text()
			if i := bytes.LastIndexByte(name, ':'); i >= 0 {
				name = name[i+1:]
			}
			inStyle = bytes.EqualFold(name, []byte("style"))
		case xml.AttributeToken:
			if site, ok := attributeSite(l.Text(), l.AttrVal(), in.Offset()); ok {
				sites = append(sites, site)
			}
		case xml.TextToken:
			if inStyle {
				sites = append(sites, htmlSite{kind: siteStyleBlock, start: in.Offset() - len(data), end: in.Offset(), entities: true})
			}
		case xml.CDATAToken:
			if inStyle {
				end := in.Offset()
				start := end - len(data) + len("<![CDATA[")
				if bytes.HasSuffix(data, []byte("]]>")) {
					end -= len("]]>")
				}
				sites = append(sites, htmlSite{kind: siteStyleBlock, start: start, end: end})
			}
		case xml.EndTagToken, xml.StartTagCloseVoidToken:
			inStyle = false
		}
	}
}

// attributeSite classifies an attribute whose value ends at offset end.
func attributeSite(key, val []byte, end int) (htmlSite, bool) {
	if val == nil {
		return htmlSite{}, false
	}

	var kind siteKind
	switch strings.ToLower(string(key)) {
	case "class":
		kind = siteClass
	case "id":
		kind = siteID
	case "for":
		kind = siteIDRef
	case "href", "xlink:href":
		kind = siteFragment
	case "style":
		kind = siteStyleAttr
	default:
		return htmlSite{}, false
	}

	start := end - len(val)
	if q := val[0]; q == '"' || q == '\'' {
		start++
		if len(val) >= 2 && val[len(val)-1] == q {
			end--
		}
	}
	return htmlSite{kind: kind, start: start, end: end, entities: true}, true
}

func lexerMessage(err error) string {
	var perr *parse.Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}

// value returns the decoded text of a site and whether decoding changed it.
func (s htmlSite) value(src []byte) (string, bool) {
	raw := string(src[s.start:s.end])
	if s.entities && strings.IndexByte(raw, '&') >= 0 {
		return stdhtml.UnescapeString(raw), true
	}
	return raw, false
}

func isHTMLSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
}

// fragmentTarget returns the id referenced by a same-document link.
func fragmentTarget(href string) (string, bool) {
	if len(href) < 2 || href[0] != '#' {
		return "", false
	}
	return href[1:], true
}

// repositionError moves a fragment parse error into document coordinates.
// Positions inside decoded values cannot be mapped and point at the value start.
func repositionError(doc []byte, base int, decoded bool, err error) error {
	var perr *ParseError
	if !errors.As(err, &perr) {
		return err
	}
	offset := base
	if !decoded {
		offset += perr.Offset
	}
	return newParseError(doc, offset, perr.Message)
}

// extractSites collects the identifiers of a scanned document. Style
// attributes that fail to parse are only reported when they would be rewritten.
func extractSites(src []byte, sites []htmlSite, opts HTMLOptions) (HTMLIdentifiers, []error) {
	var styles, markup, inline identifierSet
	var errs []error

	for _, site := range sites {
		val, decoded := site.value(src)
		switch site.kind {
		case siteStyleBlock, siteStyleAttr:
			ids, err := ExtractCSS(val)
			if err != nil {
				if site.kind == siteStyleBlock || opts.InlineStyles {
					errs = append(errs, repositionError(src, site.start, decoded, err))
				}
				continue
			}
			target := &styles
			if site.kind == siteStyleAttr {
				target = &inline
			}
			for _, id := range ids {
				target.add(id.Namespace, id.Name)
			}
		case siteClass:
			for _, token := range strings.FieldsFunc(val, isHTMLSpace) {
				markup.add(Class, token)
			}
		case siteID, siteIDRef:
			markup.add(ID, val)
		case siteFragment:
			if target, ok := fragmentTarget(val); ok {
				markup.add(ID, target)
			}
		}
	}

	return HTMLIdentifiers{Styles: styles.items, Markup: markup.items, Inline: inline.items}, errs
}

type edit struct {
	start, end int
	text       string
}

// rewriteSites applies r to every site and splices the results into src.
func rewriteSites(src []byte, sites []htmlSite, r Resolver, opts HTMLOptions) ([]byte, []error) {
	var edits []edit
	var errs []error

	for _, site := range sites {
		val, decoded := site.value(src)
		var (
			out     string
			changed bool
		)

		switch site.kind {
		case siteStyleBlock, siteStyleAttr:
			if site.kind == siteStyleAttr && !opts.InlineStyles {
				continue
			}
			rewritten, err := RewriteCSS(val, r)
			if err != nil {
				errs = append(errs, repositionError(src, site.start, decoded, err))
				continue
			}
			out, changed = rewritten, rewritten != val
		case siteClass:
			tokens := strings.FieldsFunc(val, isHTMLSpace)
			for i, token := range tokens {
				if alias, ok := r.Resolve(Class, token); ok {
					tokens[i] = alias
					changed = true
				}
			}
			out = strings.Join(tokens, " ")
		case siteID, siteIDRef:
			out, changed = r.Resolve(ID, val)
		case siteFragment:
			if target, ok := fragmentTarget(val); ok {
				if alias, ok := r.Resolve(ID, target); ok {
					out, changed = "#"+alias, true
				}
			}
		}

		if !changed {
			continue
		}
		if decoded {
			out = stdhtml.EscapeString(out)
		}
		edits = append(edits, edit{start: site.start, end: site.end, text: out})
	}

	if len(edits) == 0 {
		return src, errs
	}

	var b bytes.Buffer
	b.Grow(len(src))
	cursor := 0
	for _, e := range edits {
		b.Write(src[cursor:e.start])
		b.WriteString(e.text)
		cursor = e.end
	}
	b.Write(src[cursor:])
	return b.Bytes(), errs
}

// ExtractHTML returns the identifiers of an HTML document. The slice holds a
// *ParseError for the document or for each <style> block or style attribute
// that could not be tokenized; blocks with errors contribute nothing.
func ExtractHTML(src []byte, opts HTMLOptions) (HTMLIdentifiers, []error) {
	sites, serr := scanHTML(src)
	if serr != nil {
		return HTMLIdentifiers{}, []error{newParseError(src, serr.offset, serr.msg)}
	}
	return extractSites(src, sites, opts)
}

// RewriteHTML rewrites class, id, for and fragment link attributes and the
// contents of <style> elements of an HTML document. Unresolved names and all
// other bytes are kept exactly as written. Fragments that fail to parse are
// left unchanged and reported.
func RewriteHTML(src []byte, r Resolver, opts HTMLOptions) ([]byte, []error) {
	sites, serr := scanHTML(src)
	if serr != nil {
		return src, []error{newParseError(src, serr.offset, serr.msg)}
	}
	return rewriteSites(src, sites, r, opts)
}

// ExtractSVG is ExtractHTML for standalone SVG documents.
func ExtractSVG(src []byte, opts HTMLOptions) (HTMLIdentifiers, []error) {
	sites, serr := scanXML(src)
	if serr != nil {
		return HTMLIdentifiers{}, []error{newParseError(src, serr.offset, serr.msg)}
	}
	return extractSites(src, sites, opts)
}

// RewriteSVG is RewriteHTML for standalone SVG documents.
func RewriteSVG(src []byte, r Resolver, opts HTMLOptions) ([]byte, []error) {
	sites, serr := scanXML(src)
	if serr != nil {
		return src, []error{newParseError(src, serr.offset, serr.msg)}
	}
	return rewriteSites(src, sites, r, opts)
}
