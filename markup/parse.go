package markup

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"repgen/common"
	"repgen/css"
)

// ParseError describes markup the tokenizer could not make sense of. It is
// never fatal, offending markup is recovered as plain text.
type ParseError struct {
	Offset int
	Tag    string
	Reason string
}

func (e *ParseError) Error() string {
	if len(e.Tag) == 0 {
		return fmt.Sprintf("markup: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("markup: %s <%s> at offset %d", e.Reason, e.Tag, e.Offset)
}

const (
	// vertical space for empty paragraph
	emptyParagraphSpace = 3.0
	// vertical space for blank line of plain text
	blankLineSpace = 4.0
)

// Parser converts section markup into content nodes.
type Parser struct {
	log *zap.Logger
	css *css.Parser
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("markup")
	return &Parser{log: log, css: css.NewParser(log)}
}

// Parse is a shortcut for NewParser(log).Parse(src).
func Parse(src string, log *zap.Logger) []Node {
	return NewParser(log).Parse(src)
}

// Parse never fails: whatever cannot be understood is stripped to its text.
// Plain text (no markup at all) is split into lines, each non blank line
// becoming a paragraph.
func (p *Parser) Parse(src string) []Node {
	if len(strings.TrimSpace(src)) == 0 {
		return nil
	}

	for _, perr := range lint(src) {
		p.log.Debug("Markup recovered", zap.Error(perr))
	}

	b := &builder{p: p}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		p.log.Debug("Unable to parse markup, using plain text", zap.Error(&ParseError{Reason: err.Error()}))
		b.text(src, face{})
		b.flush()
		return b.nodes
	}

	body := findElement(doc, atom.Body)
	if body == nil {
		body = doc
	}
	b.walk(body, face{})
	b.flush()

	p.log.Debug("Markup parsed", zap.Int("bytes", len(src)), zap.Int("nodes", len(b.nodes)))
	return b.nodes
}

type face struct {
	bold, italic, underline bool
}

// builder accumulates inline runs until a block boundary.
type builder struct {
	p     *Parser
	nodes []Node
	runs  []StyleRun
	// inside block element whitespace is collapsed, outside of it line
	// breaks are significant
	block bool
	align common.TextAlign
}

func (b *builder) walk(n *html.Node, f face) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.visit(c, f)
	}
}

func (b *builder) visit(n *html.Node, f face) {
	switch n.Type {
	case html.TextNode:
		b.text(n.Data, f)
		return
	case html.ElementNode:
	default:
		return
	}

	if shouldSkipElement(n.DataAtom) {
		return
	}

	switch n.DataAtom {
	case atom.Br:
		b.appendRun("\n", f)
	case atom.P, atom.Div, atom.Blockquote, atom.Section, atom.Article,
		atom.Header, atom.Footer, atom.Main, atom.Aside, atom.Pre, atom.Center:
		b.container(n, b.inlineFace(n, f))
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		b.flush()
		b.heading(n)
	case atom.Ul, atom.Ol:
		b.flush()
		b.list(n)
	case atom.Table:
		b.flush()
		b.table(n)
	case atom.Hr:
		b.flush()
		b.nodes = append(b.nodes, &Break{})
	case atom.Img:
		b.flush()
		if src := strings.TrimSpace(attr(n, "src")); len(src) > 0 {
			b.nodes = append(b.nodes, &Image{Ref: src})
		}
	default:
		// inline or unknown element, only its text and face matter
		b.walk(n, b.inlineFace(n, f))
	}
}

// container handles block elements which may hold inline content.
func (b *builder) container(n *html.Node, f face) {
	b.flush()

	savedBlock, savedAlign := b.block, b.align
	b.block = true
	if a, ok := b.alignOf(n); ok {
		b.align = a
	}

	before := len(b.nodes)
	b.walk(n, f)
	b.flush()
	if n.DataAtom == atom.P && len(b.nodes) == before {
		b.nodes = append(b.nodes, &Spacer{Height: emptyParagraphSpace})
	}

	b.block, b.align = savedBlock, savedAlign
}

func (b *builder) heading(n *html.Node) {
	text := collapse(norm.NFC.String(textContent(n)))
	if len(text) == 0 {
		return
	}
	level := 2
	if n.DataAtom == atom.H1 {
		level = 1
	}
	h := &Heading{Text: text, Level: level, Align: b.align}
	if a, ok := b.alignOf(n); ok {
		h.Align = a
	}
	b.nodes = append(b.nodes, h)
}

// list emits items with a counter which restarts for every list, nested
// lists follow their parent item.
func (b *builder) list(n *html.Node) {
	kind := Bullet
	if n.DataAtom == atom.Ol {
		kind = Numbered
	}
	index := 0
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		// empty item still takes its number and marker
		index++
		text := collapse(norm.NFC.String(itemText(li)))
		b.nodes = append(b.nodes, &ListItem{Text: text, Kind: kind, Index: index})
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
				b.list(c)
			}
		}
	}
}

func (b *builder) table(n *html.Node) {
	var rows [][]string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				var row []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						row = append(row, collapse(norm.NFC.String(textContent(cell))))
					}
				}
				if len(row) > 0 {
					rows = append(rows, row)
				}
			case atom.Table:
				// nested tables are flattened into cell text of the outer one
			default:
				collect(c)
			}
		}
	}
	collect(n)
	if len(rows) > 0 {
		b.nodes = append(b.nodes, &Table{Rows: rows})
	}
}

func (b *builder) inlineFace(n *html.Node, f face) face {
	switch n.DataAtom {
	case atom.B, atom.Strong:
		f.bold = true
	case atom.I, atom.Em, atom.Cite:
		f.italic = true
	case atom.U, atom.Ins:
		f.underline = true
	}
	if style := attr(n, "style"); len(style) > 0 {
		decls := b.p.css.ParseInline(style)
		f.bold = f.bold || decls.Bold()
		f.italic = f.italic || decls.Italic()
		f.underline = f.underline || decls.Underline()
	}
	return f
}

func (b *builder) alignOf(n *html.Node) (common.TextAlign, bool) {
	value := ""
	if style := attr(n, "style"); len(style) > 0 {
		value = b.p.css.ParseInline(style).TextAlign()
	}
	if len(value) == 0 {
		value = strings.ToLower(strings.TrimSpace(attr(n, "align")))
	}
	if n.DataAtom == atom.Center && len(value) == 0 {
		value = "center"
	}
	a, err := common.ParseTextAlign(value)
	return a, err == nil
}

func (b *builder) text(s string, f face) {
	s = norm.NFC.String(s)
	if b.block {
		s = collapseSpaces(s)
		if len(s) == 0 {
			return
		}
		if s[0] == ' ' && b.atLineStart() {
			s = s[1:]
		}
	}
	if len(s) > 0 {
		b.appendRun(s, f)
	}
}

func (b *builder) atLineStart() bool {
	if len(b.runs) == 0 {
		return true
	}
	last := b.runs[len(b.runs)-1].Text
	return len(last) == 0 || last[len(last)-1] == ' ' || last[len(last)-1] == '\n'
}

func (b *builder) appendRun(s string, f face) {
	run := StyleRun{Text: s, Bold: f.bold, Italic: f.italic, Underline: f.underline}
	if n := len(b.runs); n > 0 && b.runs[n-1].sameStyle(run) {
		b.runs[n-1].Text += s
		return
	}
	b.runs = append(b.runs, run)
}

func (b *builder) flush() {
	if len(b.runs) == 0 {
		return
	}
	runs := b.runs
	b.runs = nil

	if b.block {
		if line := trimLine(runs, "\n "); len(line) > 0 {
			b.nodes = append(b.nodes, &Paragraph{Runs: line, Align: b.align})
		}
		return
	}

	lines := splitLines(runs)
	// blank lines at the edges carry no meaning
	first := slices.IndexFunc(lines, func(l []StyleRun) bool { return len(l) > 0 })
	if first < 0 {
		return
	}
	last := len(lines) - 1
	for len(lines[last]) == 0 {
		last--
	}
	for _, line := range lines[first : last+1] {
		if len(line) == 0 {
			b.nodes = append(b.nodes, &Spacer{Height: blankLineSpace})
			continue
		}
		b.nodes = append(b.nodes, &Paragraph{Runs: line, Align: b.align})
	}
}

// splitLines cuts runs at hard line breaks, collapsing spaces inside every
// resulting line.
func splitLines(runs []StyleRun) [][]StyleRun {
	var (
		lines [][]StyleRun
		cur   []StyleRun
	)
	for _, r := range runs {
		parts := strings.Split(r.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, trimLine(cur, " "))
				cur = nil
			}
			if len(part) > 0 {
				piece := r
				piece.Text = collapseSpaces(part)
				cur = append(cur, piece)
			}
		}
	}
	return append(lines, trimLine(cur, " "))
}

// trimLine removes cutset from both ends of the line, dropping runs which
// become empty.
func trimLine(runs []StyleRun, cutset string) []StyleRun {
	for len(runs) > 0 {
		runs[0].Text = strings.TrimLeft(runs[0].Text, cutset)
		if len(runs[0].Text) > 0 {
			break
		}
		runs = runs[1:]
	}
	for len(runs) > 0 {
		n := len(runs) - 1
		runs[n].Text = strings.TrimRight(runs[n].Text, cutset)
		if len(runs[n].Text) > 0 {
			break
		}
		runs = runs[:n]
	}
	return runs
}

// collapseSpaces replaces every run of white space with a single space.
func collapseSpaces(s string) string {
	var (
		sb    strings.Builder
		space bool
	)
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func collapse(s string) string {
	return strings.TrimSpace(collapseSpaces(s))
}

// shouldSkipElement returns true if the element should be skipped during content extraction.
func shouldSkipElement(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg, atom.Math,
		atom.Iframe, atom.Object, atom.Embed, atom.Head, atom.Title:
		return true
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, a); result != nil {
			return result
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent extracts all text of the node, line breaks become spaces.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if shouldSkipElement(n.DataAtom) {
				return
			}
			if n.DataAtom == atom.Br {
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.P, atom.Div, atom.Li, atom.Td, atom.Th:
				sb.WriteByte(' ')
			}
		}
	}
	walk(n)
	return sb.String()
}

// itemText is text of the list item without nested lists.
func itemText(li *html.Node) string {
	var sb strings.Builder
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
			continue
		}
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// lint runs tokenizer over the source looking for markup html.Parse would
// silently repair: unmatched end tags and tokenizer errors.
func lint(src string) []*ParseError {
	var (
		errs   []*ParseError
		open   []atom.Atom
		offset int
	)
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		raw := len(z.Raw())
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				errs = append(errs, &ParseError{Offset: offset, Reason: err.Error()})
			}
			return errs
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); !isVoid(a) {
				open = append(open, a)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if i := lastIndex(open, a); i >= 0 {
				open = open[:i]
			} else if !isVoid(a) {
				errs = append(errs, &ParseError{Offset: offset, Tag: string(name), Reason: "unmatched end tag"})
			}
		}
		offset += raw
	}
}

func lastIndex(stack []atom.Atom, a atom.Atom) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == a {
			return i
		}
	}
	return -1
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}
