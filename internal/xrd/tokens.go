package xrd

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingLabel is returned when a label does not occur in the remaining stream
	ErrMissingLabel = errors.New("label not found")
	// ErrStreamExhausted is returned when a value is read from an empty stream
	ErrStreamExhausted = errors.New("stream exhausted")
)

// Tokens is the unconsumed remainder of a whitespace-split document.
// Extraction never mutates a Tokens value; each step returns a new view.
type Tokens []string

// Tokenize splits text on whitespace
func Tokenize(text string) Tokens {
	return Tokens(strings.Fields(text))
}

// LocateAfter scans forward for label and returns the stream starting
// with the token that follows it. The search never looks behind t.
func (t Tokens) LocateAfter(label string) (Tokens, error) {
	for i, token := range t {
		if token == label {
			return t[i+1:], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingLabel, label)
}

// Next returns the first token and the stream after it
func (t Tokens) Next() (string, Tokens, error) {
	if len(t) == 0 {
		return "", nil, ErrStreamExhausted
	}
	return t[0], t[1:], nil
}

// ValueAfter locates label and returns the single token following it
func (t Tokens) ValueAfter(label string) (string, Tokens, error) {
	rest, err := t.LocateAfter(label)
	if err != nil {
		return "", nil, err
	}
	value, rest, err := rest.Next()
	if err != nil {
		return "", nil, fmt.Errorf("reading value after %s: %w", label, err)
	}
	return value, rest, nil
}
