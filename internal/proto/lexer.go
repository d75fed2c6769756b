package proto

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokIdent:
		return "identifier"
	case tokInt:
		return "integer"
	case tokFloat:
		return "float literal"
	case tokString:
		return "string literal"
	case tokPunct:
		return "punctuation"
	default:
		return "end of input"
	}
}

type token struct {
	kind tokenKind
	text string
	num  int
	line int
	col  int
}

// ParseError reports a lexical or grammatical failure with its position.
type ParseError struct {
	File     string
	Line     int
	Col      int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Col)
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	return fmt.Sprintf("%s: expected %s, found %s", loc, e.Expected, e.Found)
}

// lexer walks UTF-8 proto source and hands out tokens with line/col
// positions. Comments count as whitespace.
type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, expected, found string) *ParseError {
	return &ParseError{Line: line, Col: col, Expected: expected, Found: found}
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Dots stay inside identifiers so qualified references like
// google.protobuf.Timestamp come out as one token.
func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '.' || (c >= '0' && c <= '9')
}

func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			for {
				if l.pos >= len(l.src) {
					return l.errorf(line, col, "closing */", "end of input")
				}
				if l.src[l.pos] == '*' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

// next returns the next token. Errors are always *ParseError.
func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line, col: l.col}, nil
	}

	line, col := l.line, l.col
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.advance()
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line, col: col}, nil

	case c >= '0' && c <= '9', c == '-':
		start := l.pos
		l.advance()
		hex := false
		if c == '0' && l.pos < len(l.src) && (l.src[l.pos] == 'x' || l.src[l.pos] == 'X') {
			hex = true
			l.advance()
		}
		for l.pos < len(l.src) {
			d := l.src[l.pos]
			if isDigit(d) || (hex && ((d >= 'a' && d <= 'f') || (d >= 'A' && d <= 'F'))) {
				l.advance()
				continue
			}
			break
		}
		// fraction and exponent make it a float literal; those appear only
		// as option values, which are skipped structurally
		isFloat := false
		if !hex {
			if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
				isFloat = true
				l.advance()
				for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
					l.advance()
				}
			}
			if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
				j := l.pos + 1
				if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
					j++
				}
				if j < len(l.src) && isDigit(l.src[j]) {
					isFloat = true
					for l.pos < j {
						l.advance()
					}
					for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
						l.advance()
					}
				}
			}
		}
		if isFloat {
			return token{kind: tokFloat, text: l.src[start:l.pos], line: line, col: col}, nil
		}
		text := l.src[start:l.pos]
		n, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X"), pickBase(hex), 64)
		if err != nil {
			return token{}, l.errorf(line, col, "integer literal", text)
		}
		return token{kind: tokInt, text: text, num: int(n), line: line, col: col}, nil

	case c == '"' || c == '\'':
		quote := c
		l.advance()
		start := l.pos
		for {
			if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
				return token{}, l.errorf(line, col, "closing quote", "end of line")
			}
			if l.src[l.pos] == quote {
				break
			}
			l.advance()
		}
		text := l.src[start:l.pos]
		l.advance()
		return token{kind: tokString, text: text, line: line, col: col}, nil

	case strings.IndexByte("{}()[]<>;=,.", c) >= 0:
		l.advance()
		return token{kind: tokPunct, text: string(c), line: line, col: col}, nil

	default:
		l.advance()
		return token{}, l.errorf(line, col, "token", strconv.QuoteRune(rune(c)))
	}
}

func pickBase(hex bool) int {
	if hex {
		return 16
	}
	return 10
}
