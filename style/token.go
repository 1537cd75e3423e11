package style

import (
	"fmt"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF

	// Literals
	TokenIdent    // bare word: Static, min-width, bold
	TokenHash     // #name (id selector or hex color), literal excludes '#'
	TokenNumber   // 12, -1, 1.5fr, 50%, 100vw (unit kept in literal)
	TokenString   // "quoted"
	TokenVariable // $name, literal excludes '$'

	// Operators and Delimiters
	TokenDot       // .
	TokenColon     // :
	TokenSemicolon // ;
	TokenComma     // ,
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLParen    // (
	TokenRParen    // )
	TokenGreater   // >
	TokenStar      // *
	TokenBang      // !
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
	// SpaceBefore is set when whitespace or a comment preceded the token; selectors use it
	// to tell descendant combinators from compound parts
	SpaceBefore bool
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("Error(%s)", t.Literal)
	case TokenHash:
		return "#" + t.Literal
	case TokenVariable:
		return "$" + t.Literal
	case TokenString:
		return fmt.Sprintf("%q", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%q...", t.Literal[:20])
	}
	return t.Literal
}

// joinTokens renders value tokens back to source-like text for diagnostics
func joinTokens(tokens []Token) string {
	var b []byte
	for i, t := range tokens {
		if i > 0 && t.SpaceBefore {
			b = append(b, ' ')
		}
		b = append(b, t.String()...)
	}
	return string(b)
}
