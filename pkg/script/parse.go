package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed is returned for lines that cannot be parsed.
var ErrMalformed = errors.New("malformed script line")

// Parse reads a script. Blank lines are dropped; every other line is
// returned in order.
func Parse(r io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		l, err := parseLine(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return lines, nil
}

func parseLine(raw string) (Line, error) {
	if strings.HasPrefix(raw, CommentChar) {
		return Line{Kind: Comment, Text: strings.TrimSpace(strings.TrimPrefix(raw, CommentChar))}, nil
	}

	fields := strings.Fields(raw)
	switch fields[0] {
	case "H":
		if len(fields) < 2 {
			return Line{}, fmt.Errorf("%w: header without token", ErrMalformed)
		}
		return Line{Kind: Header, Token: fields[1], Params: fields[2:]}, nil
	case "S", "C":
		if len(fields) < 4 {
			return Line{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
		}
		num, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Line{}, fmt.Errorf("%w: bad line number %q", ErrMalformed, fields[1])
		}
		if len(fields[2]) != 1 {
			return Line{}, fmt.Errorf("%w: bad directive %q", ErrMalformed, fields[2])
		}
		return Line{
			Kind:      Kind(fields[0][0]),
			Number:    num,
			Directive: fields[2][0],
			Token:     fields[3],
			Params:    fields[4:],
		}, nil
	}
	return Line{Kind: Row, Params: fields}, nil
}

// CheckNumbering verifies that setting and command line numbers are strictly
// ascending and positive.
func CheckNumbering(lines []Line) error {
	var last int64
	for i := range lines {
		l := &lines[i]
		if !l.Numbered() {
			continue
		}
		if l.Number <= last {
			return fmt.Errorf("line number %d after %d (%s)", l.Number, last, l.Token)
		}
		last = l.Number
	}
	return nil
}

// Numbered returns only the setting and command lines.
func Numbered(lines []Line) []Line {
	var ret []Line
	for i := range lines {
		if lines[i].Numbered() {
			ret = append(ret, lines[i])
		}
	}
	return ret
}
