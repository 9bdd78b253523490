// Package script writes and reads the line oriented SeaCat mission script.
//
// A script is made of header lines (H), runtime settings (S), trajectory or
// action commands (C), enumerated rows following some headers and comments
// starting with '%'. Lines are CRLF separated:
//
//	H <token> <params...>
//	S <line-number> <directive> <token> <params...>
//	C <line-number> <directive> <token> <params...>
//
// Setting and command line numbers must be ascending but need not be
// consecutive.
package script

import (
	"strconv"
	"strings"
	"unicode"
)

// NewLine separates script lines.
const NewLine = "\r\n"

// CommentChar starts a comment line.
const CommentChar = "%"

// MaxTokenLen is the maximum length of the human readable token.
const MaxTokenLen = 20

// Kind is the line type prefix.
type Kind byte

const (
	Header  Kind = 'H'
	Setting Kind = 'S'
	Command Kind = 'C'
	Row     Kind = '#' // enumerated row under a header, rendered without prefix
	Comment Kind = '%'
)

// Line is one parsed or generated script line.
type Line struct {
	Kind      Kind
	Number    int64 // Setting and Command only
	Directive byte  // Setting and Command only
	Token     string
	Params    []string
	Text      string // Comment only
}

// Numbered reports whether the line carries a line number.
func (l *Line) Numbered() bool {
	return l.Kind == Setting || l.Kind == Command
}

// String renders the line without the trailing newline.
func (l *Line) String() string {
	var sb strings.Builder
	switch l.Kind {
	case Comment:
		sb.WriteString(CommentChar)
		sb.WriteString(" ")
		sb.WriteString(l.Text)
		return sb.String()
	case Row:
		return strings.Join(l.Params, " ")
	case Header:
		sb.WriteByte(byte(Header))
		sb.WriteString(" ")
		sb.WriteString(l.Token)
	default:
		sb.WriteByte(byte(l.Kind))
		sb.WriteString(" ")
		sb.WriteString(strconv.FormatInt(l.Number, 10))
		sb.WriteString(" ")
		sb.WriteByte(l.Directive)
		sb.WriteString(" ")
		sb.WriteString(l.Token)
	}
	for _, p := range l.Params {
		sb.WriteString(" ")
		sb.WriteString(p)
	}
	return sb.String()
}

// Token makes a human readable token: at most MaxTokenLen characters with
// blanks replaced by underscores.
func Token(s string) string {
	if r := []rune(s); len(r) > MaxTokenLen {
		s = string(r[:MaxTokenLen])
	}
	return strings.ReplaceAll(s, " ", "_")
}

// HeaderLine renders a header line including the trailing newline.
func HeaderLine(token string, params ...string) string {
	l := Line{Kind: Header, Token: token, Params: params}
	return l.String() + NewLine
}

// CommentLine renders a comment line including the trailing newline.
func CommentLine(parts ...string) string {
	l := Line{Kind: Comment, Text: strings.Join(parts, "")}
	return l.String() + NewLine
}

// Builder accumulates numbered lines. The line counter starts at 1 and only
// moves forward, so a number is never handed out twice.
type Builder struct {
	sb      strings.Builder
	counter int64
	lines   int
}

// NewBuilder creates a builder with the counter at 1.
func NewBuilder() *Builder {
	return &Builder{counter: 1}
}

// Counter returns the number the next numbered line will get.
func (b *Builder) Counter() int64 {
	return b.counter
}

// Gap reserves gap-1 line numbers. Combined with the increment of the last
// emitted line this leaves the next line at least gap numbers after it.
func (b *Builder) Gap(gap int) {
	if gap > 1 {
		b.counter += int64(gap - 1)
	}
}

func (b *Builder) next() int64 {
	n := b.counter
	b.counter++
	return n
}

func (b *Builder) numbered(kind Kind, directive rune, token string, params []string) Line {
	l := Line{
		Kind:      kind,
		Number:    b.next(),
		Directive: byte(unicode.ToUpper(directive)),
		Token:     Token(token),
		Params:    params,
	}
	b.sb.WriteString(l.String())
	b.sb.WriteString(NewLine)
	b.lines++
	return l
}

// Setting appends an S line.
func (b *Builder) Setting(directive rune, token string, params ...string) Line {
	return b.numbered(Setting, directive, token, params)
}

// Command appends a C line.
func (b *Builder) Command(directive rune, token string, params ...string) Line {
	return b.numbered(Command, directive, token, params)
}

// Comment appends a comment line.
func (b *Builder) Comment(parts ...string) {
	b.sb.WriteString(CommentLine(parts...))
}

// Blank appends an empty line.
func (b *Builder) Blank() {
	b.sb.WriteString(NewLine)
}

// Raw appends already rendered text.
func (b *Builder) Raw(s string) {
	b.sb.WriteString(s)
}

// Lines returns how many numbered lines were emitted.
func (b *Builder) Lines() int {
	return b.lines
}

// String returns the accumulated text.
func (b *Builder) String() string {
	return b.sb.String()
}
