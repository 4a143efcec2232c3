package scss

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ParseError reports source text that cannot be turned into a tree.
type ParseError struct {
	Position
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Reason)
}

var importantFlag = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)

// atWordEnd lists the bytes that terminate an at-rule name.
const atWordEnd = " \t\n\r\f{}()'\";/[]\\#"

type parser struct {
	src        string
	pos        int
	lineStarts []int
}

// Parse parses SCSS source text into a tree.
func Parse(src string) (*Root, error) {
	p := newParser(src)
	root := &Root{}
	if err := p.parseBlock(&root.Container, -1); err != nil {
		return nil, err
	}
	return root, nil
}

func newParser(src string) *parser {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &parser{src: src, lineStarts: starts}
}

func (p *parser) position(offset int) Position {
	line := sort.Search(len(p.lineStarts), func(i int) bool {
		return p.lineStarts[i] > offset
	})
	return Position{Line: line, Column: offset - p.lineStarts[line-1] + 1}
}

func (p *parser) errorf(offset int, format string, args ...any) *ParseError {
	return &ParseError{Position: p.position(offset), Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f':
			p.pos++
		default:
			return
		}
	}
}

// parseBlock reads statements into c until the closing brace. open is the
// offset of the opening brace, or -1 for the root.
func (p *parser) parseBlock(c *Container, open int) error {
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			if open >= 0 {
				return p.errorf(open, "unclosed block")
			}
			return nil
		}

		switch ch := p.src[p.pos]; {
		case ch == '}':
			if open < 0 {
				return p.errorf(p.pos, "unexpected }")
			}
			p.pos++
			return nil
		case ch == ';':
			p.pos++
		case p.hasPrefix("/*"):
			cm, err := p.blockComment()
			if err != nil {
				return err
			}
			c.append(cm)
		case p.hasPrefix("//"):
			c.append(p.lineComment())
		case ch == '@':
			if err := p.atRule(c); err != nil {
				return err
			}
		default:
			if err := p.ruleOrDecl(c); err != nil {
				return err
			}
		}
	}
}

func (p *parser) blockComment() (*Comment, error) {
	start := p.pos
	end := strings.Index(p.src[start+2:], "*/")
	if end < 0 {
		return nil, p.errorf(start, "unclosed comment")
	}
	p.pos = start + 2 + end + 2
	return &Comment{
		Text:     strings.TrimSpace(p.src[start+2 : start+2+end]),
		Position: p.position(start),
	}, nil
}

func (p *parser) lineComment() *Comment {
	start := p.pos
	end := len(p.src)
	if nl := strings.IndexByte(p.src[start:], '\n'); nl >= 0 {
		end = start + nl
	}
	p.pos = end
	return &Comment{
		Text:     strings.TrimSpace(p.src[start+2 : end]),
		Inline:   true,
		Position: p.position(start),
	}
}

func (p *parser) atRule(c *Container) error {
	start := p.pos
	p.pos++

	nameStart := p.pos
	for p.pos < len(p.src) {
		if p.hasPrefix("#{") {
			end, err := p.skipInterpolation(p.pos)
			if err != nil {
				return err
			}
			p.pos = end
			continue
		}
		if strings.IndexByte(atWordEnd, p.src[p.pos]) >= 0 {
			break
		}
		p.pos++
	}
	name := p.src[nameStart:p.pos]
	if name == "" {
		return p.errorf(start, "at-rule without name")
	}

	text, term, err := p.statement()
	if err != nil {
		return err
	}

	at := &AtRule{
		Name:     name,
		Params:   strings.TrimSpace(text),
		Position: p.position(start),
	}
	c.append(at)

	if term == '{' {
		at.HasBlock = true
		return p.parseBlock(&at.Container, p.pos-1)
	}
	return nil
}

func (p *parser) ruleOrDecl(c *Container) error {
	start := p.pos
	text, term, err := p.statement()
	if err != nil {
		return err
	}

	if term == '{' {
		rule := &Rule{
			Selector: strings.TrimSpace(text),
			Position: p.position(start),
		}
		c.append(rule)
		return p.parseBlock(&rule.Container, p.pos-1)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	prop, value, ok := splitDeclaration(text)
	if !ok {
		return p.errorf(start, "unknown word %q", strings.Fields(text)[0])
	}

	decl := &Declaration{Prop: prop, Value: value, Position: p.position(start)}
	if loc := importantFlag.FindStringIndex(value); loc != nil {
		decl.Value = value[:loc[0]]
		decl.Important = true
	}
	c.append(decl)
	return nil
}

// statement reads raw text up to the next `;`, `{` or `}` outside strings,
// brackets and interpolation. The terminator is consumed unless it is `}`,
// which belongs to the enclosing block. term is 0 at end of input. Comments
// are dropped from the returned text.
func (p *parser) statement() (text string, term byte, err error) {
	var b strings.Builder
	var brackets []int
	// urls counts open unquoted url( brackets, whose `//` is not a comment.
	urls := 0
	var urlOpen []bool

	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == '"' || ch == '\'':
			end, err := p.skipString(p.pos)
			if err != nil {
				return "", 0, err
			}
			b.WriteString(p.src[p.pos:end])
			p.pos = end
		case p.hasPrefix("#{"):
			end, err := p.skipInterpolation(p.pos)
			if err != nil {
				return "", 0, err
			}
			b.WriteString(p.src[p.pos:end])
			p.pos = end
		case p.hasPrefix("/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				return "", 0, p.errorf(p.pos, "unclosed comment")
			}
			p.pos += end + 4
		case urls == 0 && p.hasPrefix("//"):
			if nl := strings.IndexByte(p.src[p.pos:], '\n'); nl >= 0 {
				p.pos += nl
			} else {
				p.pos = len(p.src)
			}
		case ch == '(' || ch == '[':
			isURL := ch == '(' && endsWithURL(b.String())
			if isURL {
				urls++
			}
			brackets = append(brackets, p.pos)
			urlOpen = append(urlOpen, isURL)
			b.WriteByte(ch)
			p.pos++
		case ch == ')' || ch == ']':
			if n := len(brackets); n > 0 {
				if urlOpen[n-1] {
					urls--
				}
				brackets = brackets[:n-1]
				urlOpen = urlOpen[:n-1]
			}
			b.WriteByte(ch)
			p.pos++
		case len(brackets) == 0 && (ch == ';' || ch == '{' || ch == '}'):
			if ch != '}' {
				p.pos++
			}
			return b.String(), ch, nil
		default:
			b.WriteByte(ch)
			p.pos++
		}
	}

	if len(brackets) > 0 {
		return "", 0, p.errorf(brackets[len(brackets)-1], "unclosed bracket")
	}
	return b.String(), 0, nil
}

// endsWithURL reports whether text ends in the function name `url`.
func endsWithURL(text string) bool {
	n := len(text)
	if n < 3 || !strings.EqualFold(text[n-3:], "url") {
		return false
	}
	if n == 3 {
		return true
	}
	c := text[n-4]
	return !(c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}

// skipString returns the offset just past the string literal starting at
// start.
func (p *parser) skipString(start int) (int, error) {
	quote := p.src[start]
	for i := start + 1; i < len(p.src); {
		switch ch := p.src[i]; {
		case ch == '\\':
			i += 2
		case ch == quote:
			return i + 1, nil
		case ch == '#' && strings.HasPrefix(p.src[i:], "#{"):
			end, err := p.skipInterpolation(i)
			if err != nil {
				return 0, err
			}
			i = end
		default:
			i++
		}
	}
	return 0, p.errorf(start, "unclosed string")
}

// skipInterpolation returns the offset just past the `#{...}` span starting
// at start.
func (p *parser) skipInterpolation(start int) (int, error) {
	depth := 0
	for i := start + 1; i < len(p.src); {
		switch ch := p.src[i]; ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		case '"', '\'':
			end, err := p.skipString(i)
			if err != nil {
				return 0, err
			}
			i = end
			continue
		}
		i++
	}
	return 0, p.errorf(start, "unclosed interpolation")
}

// splitDeclaration splits `prop: value` at the first colon outside strings,
// brackets and interpolation.
func splitDeclaration(text string) (prop, value string, ok bool) {
	interp, brackets := 0, 0
	var quote byte

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '#' && i+1 < len(text) && text[i+1] == '{':
			interp++
			i++
		case ch == '{' && interp > 0:
			interp++
		case ch == '}' && interp > 0:
			interp--
		case ch == '(' || ch == '[':
			brackets++
		case (ch == ')' || ch == ']') && brackets > 0:
			brackets--
		case ch == ':' && interp == 0 && brackets == 0:
			return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:]), true
		}
	}
	return "", "", false
}
