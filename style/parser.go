package style

import (
	"fmt"
)

// Parser turns stylesheet tokens into rules, collecting recoverable errors
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token

	source string
	origin Origin
	order  *int
	sheet  *Stylesheet
	errs   []error
}

func NewParser(source string, input []byte, origin Origin, order *int) *Parser {
	if order == nil {
		order = new(int)
	}
	p := &Parser{
		lexer:  NewLexer(input),
		source: source,
		origin: origin,
		order:  order,
		sheet:  NewStylesheet(),
	}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a whole stylesheet
// Malformed rules and declarations are skipped and reported; the rest of the sheet is kept
func Parse(source, text string, origin Origin, order *int) (*Stylesheet, []error) {
	p := NewParser(source, []byte(text), origin, order)
	return p.Parse()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

func (p *Parser) Parse() (*Stylesheet, []error) {
	for p.curToken.Type != TokenEOF {
		if p.curToken.Type == TokenVariable && p.peekToken.Type == TokenColon {
			p.parseVariable()
			continue
		}
		p.parseRule()
	}
	return p.sheet, p.errs
}

func (p *Parser) syntaxError(tok Token, format string, args ...any) {
	p.errs = append(p.errs, &ParseError{
		Source: p.source,
		Line:   tok.Line,
		Col:    tok.Col,
		Msg:    fmt.Sprintf(format, args...),
	})
}

// parseVariable handles "$name: value;" at the top level
func (p *Parser) parseVariable() {
	nameTok := p.curToken
	p.nextToken() // consume $name
	p.nextToken() // consume ':'

	var value []Token
	for p.curToken.Type != TokenSemicolon {
		switch p.curToken.Type {
		case TokenEOF, TokenLBrace, TokenRBrace, TokenError:
			p.syntaxError(p.curToken, "unterminated variable $%s", nameTok.Literal)
			p.recoverRule()
			return
		}
		value = append(value, p.curToken)
		p.nextToken()
	}
	p.nextToken() // consume ';'

	if len(value) == 0 {
		p.syntaxError(nameTok, "empty variable $%s", nameTok.Literal)
		return
	}
	p.sheet.variables[nameTok.Literal] = value
}

// parseRule parses "selectors { declarations }"
func (p *Parser) parseRule() {
	start := p.curToken
	selectors, err := p.parseSelectorList()
	if err != nil {
		p.syntaxError(p.curToken, "%v", err)
		p.recoverRule()
		return
	}
	p.nextToken() // consume '{'

	var decls []Declaration
	for p.curToken.Type != TokenRBrace {
		if p.curToken.Type == TokenEOF {
			p.syntaxError(start, "unclosed rule block")
			return
		}
		if p.curToken.Type == TokenSemicolon {
			p.nextToken()
			continue
		}
		if d, ok := p.parseDeclaration(); ok {
			decls = append(decls, d)
		}
	}
	p.nextToken() // consume '}'

	// A union selector becomes one rule per alternative, sharing declarations and order
	order := *p.order
	*p.order++
	for _, sel := range selectors {
		for _, part := range sel.Parts {
			for _, ps := range part.Pseudos {
				p.sheet.pseudo[ps] = true
			}
		}
		p.sheet.rules = append(p.sheet.rules, &Rule{
			Selector:     sel,
			Specificity:  sel.Specificity(),
			Declarations: decls,
			Order:        order,
			Origin:       p.origin,
			Source:       p.source,
			Line:         start.Line,
		})
	}
}

// recoverRule skips past the next balanced block, or to EOF
func (p *Parser) recoverRule() {
	for p.curToken.Type != TokenLBrace && p.curToken.Type != TokenEOF {
		if p.curToken.Type == TokenRBrace || p.curToken.Type == TokenSemicolon {
			p.nextToken()
			return
		}
		p.nextToken()
	}
	depth := 0
	for p.curToken.Type != TokenEOF {
		switch p.curToken.Type {
		case TokenLBrace:
			depth++
		case TokenRBrace:
			depth--
			if depth == 0 {
				p.nextToken()
				return
			}
		}
		p.nextToken()
	}
}

// parseSelectorList parses comma-separated selectors up to '{'
func (p *Parser) parseSelectorList() ([]*Selector, error) {
	var list []*Selector
	for {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		list = append(list, sel)

		switch p.curToken.Type {
		case TokenComma:
			p.nextToken()
		case TokenLBrace:
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected %s in selector", p.curToken)
		}
	}
}

func isCompoundStart(t TokenType) bool {
	switch t {
	case TokenIdent, TokenStar, TokenHash, TokenDot, TokenColon:
		return true
	}
	return false
}

// parseSelector parses compounds joined by whitespace or '>'
func (p *Parser) parseSelector() (*Selector, error) {
	sel := &Selector{}
	for {
		if !isCompoundStart(p.curToken.Type) {
			return nil, fmt.Errorf("expected selector, got %s", p.curToken)
		}
		c, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		sel.Parts = append(sel.Parts, c)

		switch {
		case p.curToken.Type == TokenGreater:
			p.nextToken()
			sel.Combinators = append(sel.Combinators, CombinatorChild)
		case isCompoundStart(p.curToken.Type) && p.curToken.SpaceBefore:
			sel.Combinators = append(sel.Combinators, CombinatorDescendant)
		default:
			return sel, nil
		}
	}
}

// parseCompound parses [type|*](#id|.class|:pseudo)* without interior whitespace
func (p *Parser) parseCompound() (Compound, error) {
	var c Compound
	first := true
	for {
		tok := p.curToken
		if !first && tok.SpaceBefore {
			return c, nil
		}
		switch tok.Type {
		case TokenIdent, TokenStar:
			if !first {
				return c, fmt.Errorf("type selector %s must come first", tok)
			}
			c.Type = tok.Literal
			p.nextToken()
		case TokenHash:
			if c.ID != "" {
				return c, fmt.Errorf("duplicate id selector #%s", tok.Literal)
			}
			c.ID = tok.Literal
			p.nextToken()
		case TokenDot, TokenColon:
			p.nextToken()
			name := p.curToken
			if name.Type != TokenIdent || name.SpaceBefore {
				return c, fmt.Errorf("expected name after %q", tok.Literal)
			}
			if tok.Type == TokenDot {
				c.Classes = append(c.Classes, name.Literal)
			} else {
				if !knownPseudo[name.Literal] {
					return c, fmt.Errorf("unknown pseudo-class :%s", name.Literal)
				}
				c.Pseudos = append(c.Pseudos, name.Literal)
			}
			p.nextToken()
		default:
			return c, nil
		}
		first = false
	}
}

// parseDeclaration parses "property: value [!important]" up to ';' or '}'
// Returns ok=false when the declaration was skipped
func (p *Parser) parseDeclaration() (Declaration, bool) {
	nameTok := p.curToken
	if nameTok.Type != TokenIdent {
		p.syntaxError(nameTok, "expected property name, got %s", nameTok)
		p.skipDeclaration()
		return Declaration{}, false
	}
	p.nextToken()
	if p.curToken.Type != TokenColon {
		p.syntaxError(p.curToken, "expected ':' after %s", nameTok.Literal)
		p.skipDeclaration()
		return Declaration{}, false
	}
	p.nextToken()

	var value []Token
	for p.curToken.Type != TokenSemicolon && p.curToken.Type != TokenRBrace {
		switch p.curToken.Type {
		case TokenEOF:
			return Declaration{}, false
		case TokenError, TokenLBrace:
			p.syntaxError(p.curToken, "unexpected %s in value of %s", p.curToken, nameTok.Literal)
			p.skipDeclaration()
			return Declaration{}, false
		}
		value = append(value, p.curToken)
		p.nextToken()
	}
	if p.curToken.Type == TokenSemicolon {
		p.nextToken()
	}

	d := Declaration{
		Property: nameTok.Literal,
		Line:     nameTok.Line,
		Col:      nameTok.Col,
	}
	if n := len(value); n >= 2 && value[n-2].Type == TokenBang && value[n-1].Type == TokenIdent && value[n-1].Literal == "important" {
		d.Important = true
		value = value[:n-2]
	}
	d.Value = value

	if _, ok := properties[d.Property]; !ok {
		p.errs = append(p.errs, p.valueError(d, fmt.Errorf("unknown property")))
		return Declaration{}, false
	}
	if hasVariable(value) {
		// Validated after substitution at cascade time
		return d, true
	}
	apply, err := compile(d.Property, value)
	if err != nil {
		p.errs = append(p.errs, p.valueError(d, err))
		return Declaration{}, false
	}
	d.apply = apply
	return d, true
}

func (p *Parser) valueError(d Declaration, err error) *ValueError {
	return &ValueError{
		Source:   p.source,
		Line:     d.Line,
		Col:      d.Col,
		Property: d.Property,
		Value:    joinTokens(d.Value),
		Err:      err,
	}
}

// skipDeclaration advances past the next ';', stopping before '}' or EOF
func (p *Parser) skipDeclaration() {
	for {
		switch p.curToken.Type {
		case TokenSemicolon:
			p.nextToken()
			return
		case TokenRBrace, TokenEOF:
			return
		}
		p.nextToken()
	}
}

func hasVariable(tokens []Token) bool {
	for _, t := range tokens {
		if t.Type == TokenVariable {
			return true
		}
	}
	return false
}
