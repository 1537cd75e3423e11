package style

import (
	"fmt"
	"maps"
)

// Origin records where a rule came from
type Origin uint8

const (
	OriginDefault Origin = iota // widget type default fragment
	OriginUser                  // application or user stylesheet
)

func (o Origin) String() string {
	if o == OriginUser {
		return "user"
	}
	return "default"
}

// Declaration is one property assignment inside a rule
type Declaration struct {
	Property  string
	Value     []Token
	Important bool
	Line      int
	Col       int
	apply     applyFunc // nil when the value references variables
}

// Rule is a single selector with its declarations; union selectors become several rules
type Rule struct {
	Selector     *Selector
	Specificity  Specificity
	Declarations []Declaration
	Order        int // global declaration order, later wins ties
	Origin       Origin
	Source       string
	Line         int
}

// Stylesheet is an ordered rule set with its variable definitions
type Stylesheet struct {
	rules     []*Rule
	variables map[string][]Token
	pseudo    map[string]bool
}

func NewStylesheet() *Stylesheet {
	return &Stylesheet{
		variables: make(map[string][]Token),
		pseudo:    make(map[string]bool),
	}
}

// Add appends other's rules after s's and merges its variables, other winning on conflict
func (s *Stylesheet) Add(other *Stylesheet) {
	if other == nil {
		return
	}
	s.rules = append(s.rules, other.rules...)
	maps.Copy(s.variables, other.variables)
	maps.Copy(s.pseudo, other.pseudo)
}

// Rules returns the rules in declaration order
func (s *Stylesheet) Rules() []*Rule {
	return s.rules
}

// Variables returns variable definitions as source text
func (s *Stylesheet) Variables() map[string]string {
	out := make(map[string]string, len(s.variables))
	for name, toks := range s.variables {
		out[name] = joinTokens(toks)
	}
	return out
}

// SetVariable defines or replaces a variable from source text
func (s *Stylesheet) SetVariable(name, value string) error {
	toks, err := lexValue(value)
	if err != nil {
		return fmt.Errorf("variable $%s: %w", name, err)
	}
	s.variables[name] = toks
	return nil
}

// UsesPseudo reports whether any rule references the pseudo-class
// Pseudo-state changes nobody selects on need no restyle
func (s *Stylesheet) UsesPseudo(name string) bool {
	if name == "disabled" && s.pseudo["enabled"] {
		return true
	}
	if name == "focus" && s.pseudo["focus-within"] {
		return true
	}
	return s.pseudo[name]
}

// lexValue tokenizes a standalone value
func lexValue(text string) ([]Token, error) {
	l := NewLexer([]byte(text))
	var toks []Token
	for {
		t := l.NextToken()
		switch t.Type {
		case TokenEOF:
			if len(toks) == 0 {
				return nil, fmt.Errorf("empty value")
			}
			return toks, nil
		case TokenError:
			return nil, fmt.Errorf("%s", t.Literal)
		case TokenSemicolon, TokenLBrace, TokenRBrace:
			return nil, fmt.Errorf("unexpected %s", t)
		}
		toks = append(toks, t)
	}
}
