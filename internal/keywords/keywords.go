// Package keywords implements the string-parameter convention spec.md §6
// specifies for the surrounding test runner: splitting a list of
// "key:value" / "key=value" tokens into field-value overrides, header
// overrides, and transport configuration, before any of it reaches the
// core. The wider keyword surface itself (the test runner) stays out of
// scope; only this token grammar is part of the contract.
package keywords

import (
	"fmt"
	"strings"
)

// Parsed is the result of splitting a token list per spec.md §6.
type Parsed struct {
	// Fields holds "key:value" tokens, keyed by the dotted/indexed path
	// the token names, suitable for feeding into env.Values.Set.
	Fields map[string]string
	// HeaderFields holds "header:<name>:<value>" tokens, keyed by the
	// header field's own path.
	HeaderFields map[string]string
	// Transport holds "key=value" tokens, not seen by the core.
	Transport map[string]string
}

const headerPrefix = "header:"

// Parse splits tokens into field values, header overrides, and transport
// configs.
//
//   - a token of the form "key:value" is a field value, except the
//     special "header:<name>:<value>" form, which is a header override;
//   - a token of the form "key=value" is a transport config;
//   - a token containing both ':' and '=' is a field value if ':' comes
//     first, otherwise a transport config;
//   - a token containing neither is a syntax error.
func Parse(tokens []string) (Parsed, error) {
	out := Parsed{
		Fields:       map[string]string{},
		HeaderFields: map[string]string{},
		Transport:    map[string]string{},
	}
	for _, tok := range tokens {
		if err := out.add(tok); err != nil {
			return Parsed{}, err
		}
	}
	return out, nil
}

func (p *Parsed) add(tok string) error {
	colon := strings.IndexByte(tok, ':')
	equals := strings.IndexByte(tok, '=')

	switch {
	case colon < 0 && equals < 0:
		return fmt.Errorf("keywords: token %q is neither key:value nor key=value", tok)
	case colon >= 0 && (equals < 0 || colon < equals):
		if rest, ok := strings.CutPrefix(tok, headerPrefix); ok {
			name, value, ok := strings.Cut(rest, ":")
			if !ok {
				return fmt.Errorf("keywords: header token %q missing value", tok)
			}
			p.HeaderFields[name] = value
			return nil
		}
		key, value, _ := strings.Cut(tok, ":")
		p.Fields[key] = value
		return nil
	default:
		key, value, _ := strings.Cut(tok, "=")
		p.Transport[key] = value
		return nil
	}
}
