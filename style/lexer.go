package style

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Lexer state machine
type Lexer struct {
	input []byte
	pos   int // current position in input (points to current char)
	line  int
	col   int
	space bool // whitespace seen since the last token
}

func NewLexer(input []byte) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
}

// NextToken returns the next token in the stream; comments and whitespace are folded into SpaceBefore
func (l *Lexer) NextToken() Token {
	if tok, ok := l.skipSpaceAndComments(); !ok {
		return tok
	}

	if l.pos >= len(l.input) {
		return l.newToken(TokenEOF, "", l.line, l.col)
	}

	line, col := l.line, l.col
	ch := l.peek()

	switch ch {
	case '.':
		if isDigit(l.peekAt(1)) {
			return l.readNumber(line, col)
		}
		l.advance()
		return l.newToken(TokenDot, ".", line, col)
	case ':':
		l.advance()
		return l.newToken(TokenColon, ":", line, col)
	case ';':
		l.advance()
		return l.newToken(TokenSemicolon, ";", line, col)
	case ',':
		l.advance()
		return l.newToken(TokenComma, ",", line, col)
	case '{':
		l.advance()
		return l.newToken(TokenLBrace, "{", line, col)
	case '}':
		l.advance()
		return l.newToken(TokenRBrace, "}", line, col)
	case '(':
		l.advance()
		return l.newToken(TokenLParen, "(", line, col)
	case ')':
		l.advance()
		return l.newToken(TokenRParen, ")", line, col)
	case '>':
		l.advance()
		return l.newToken(TokenGreater, ">", line, col)
	case '*':
		l.advance()
		return l.newToken(TokenStar, "*", line, col)
	case '!':
		l.advance()
		return l.newToken(TokenBang, "!", line, col)
	case '"', '\'':
		return l.readString(ch, line, col)
	case '#':
		l.advance()
		name := l.readName()
		if name == "" {
			return l.newToken(TokenError, "expected name after '#'", line, col)
		}
		return l.newToken(TokenHash, name, line, col)
	case '$':
		l.advance()
		name := l.readName()
		if name == "" {
			return l.newToken(TokenError, "expected variable name after '$'", line, col)
		}
		return l.newToken(TokenVariable, name, line, col)
	}

	if isDigit(ch) || ((ch == '-' || ch == '+') && (isDigit(l.peekAt(1)) || l.peekAt(1) == '.')) {
		return l.readNumber(line, col)
	}

	if isNameStart(ch) {
		return l.newToken(TokenIdent, l.readName(), line, col)
	}

	// Unknown
	l.advance()
	return l.newToken(TokenError, fmt.Sprintf("unexpected character: %c", ch), line, col)
}

// newToken builds a token starting at (line, col) and consumes the pending whitespace flag
func (l *Lexer) newToken(typ TokenType, literal string, line, col int) Token {
	tok := Token{Type: typ, Literal: literal, Line: line, Col: col, SpaceBefore: l.space}
	l.space = false
	return tok
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt looks ahead n runes without consuming
func (l *Lexer) peekAt(n int) rune {
	pos := l.pos
	for i := 0; ; i++ {
		if pos >= len(l.input) {
			return 0
		}
		r, w := utf8.DecodeRune(l.input[pos:])
		if i == n {
			return r
		}
		pos += w
	}
}

// skipSpaceAndComments consumes whitespace and /* */ comments
// Returns ok=false with an error token for an unterminated comment
func (l *Lexer) skipSpaceAndComments() (Token, bool) {
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
			l.space = true
		case ch == '/' && l.peekAt(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.input) {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return l.newToken(TokenError, "unterminated comment", line, col), false
			}
			l.space = true
		default:
			return Token{}, true
		}
	}
	return Token{}, true
}

func (l *Lexer) readString(quote rune, line, col int) Token {
	// Consume opening quote
	l.advance()
	var b strings.Builder
	escaped := false
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '\n' {
			return l.newToken(TokenError, "unterminated string", line, col)
		}
		l.advance()
		if escaped {
			b.WriteRune(ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == quote {
			return l.newToken(TokenString, b.String(), line, col)
		}
		b.WriteRune(ch)
	}
	return l.newToken(TokenError, "unterminated string", line, col)
}

// readNumber reads a signed decimal with an optional unit suffix (fr, %, w, h, vw, vh)
func (l *Lexer) readNumber(line, col int) Token {
	start := l.pos
	if ch := l.peek(); ch == '-' || ch == '+' {
		l.advance()
	}
	seenDot := false
	for l.pos < len(l.input) {
		ch := l.peek()
		if isDigit(ch) {
			l.advance()
		} else if ch == '.' && !seenDot && isDigit(l.peekAt(1)) {
			seenDot = true
			l.advance()
		} else {
			break
		}
	}
	if l.peek() == '%' {
		l.advance()
	} else {
		for l.pos < len(l.input) && isAlpha(l.peek()) {
			l.advance()
		}
	}
	return l.newToken(TokenNumber, string(l.input[start:l.pos]), line, col)
}

// readName reads an identifier: letters, digits, '-' and '_'
func (l *Lexer) readName() string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if isNameStart(ch) || isDigit(ch) || ch == '-' {
			l.advance()
		} else {
			break
		}
	}
	return string(l.input[start:l.pos])
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameStart(ch rune) bool {
	return isAlpha(ch) || ch == '_'
}
