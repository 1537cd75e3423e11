// Package style implements the stylesheet language and the cascade.
//
// A sheet is a list of rules:
//
//	$accent: #ff8800;
//
//	Container > Static.title:focus {
//	    color: $accent;
//	    border: round hsl(200, 50%, 40%);
//	    width: 1fr !important;
//	}
//
// Parse never fails as a whole: a rule with a bad selector is dropped with a *ParseError,
// a declaration with a bad value is dropped with a *ValueError, and everything else is kept.
// Declarations that reference variables are validated when the cascade first resolves them.
//
// The cascade orders matching declarations by importance, specificity (ids, classes and
// pseudo-classes, types) and rule order, applying them over built-in defaults and the
// inherited properties of the parent: color, text-style, text-align, visibility.
package style
