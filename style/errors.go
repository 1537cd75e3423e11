package style

import (
	"fmt"
)

// ParseError is a syntax error in a rule; the rule is discarded and parsing resumes after it
type ParseError struct {
	Source string
	Line   int
	Col    int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Line, e.Col, e.Msg)
}

// ValueError is a declaration whose value does not fit its property's grammar
// The declaration is skipped; the property keeps its inherited or default value
type ValueError struct {
	Source   string
	Line     int
	Col      int
	Property string
	Value    string
	Err      error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s:%d:%d: invalid value %q for %s: %v", e.Source, e.Line, e.Col, e.Value, e.Property, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
