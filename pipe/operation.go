package pipe

import (
	"fmt"
	"regexp"
)

// Operation is anything an Each or Every applies to tuples.
type Operation interface {
	FieldDeclaration() Fields
	Trace() string
}

type Function interface {
	Operation
	function()
}

type Filter interface {
	Operation
	filter()
}

type Aggregator interface {
	Operation
	aggregator()
}

type Buffer interface {
	Operation
	buffer()
}

type operation struct {
	fieldDeclaration Fields
	trace            string
}

func (o *operation) FieldDeclaration() Fields { return o.fieldDeclaration }
func (o *operation) Trace() string { return o.trace }
func (o *operation) SetTrace(t string) { o.trace = t }

// Identity passes arguments through unchanged.
type Identity struct{ operation }

func (*Identity) function() {}

func NewIdentity() *Identity {
	return &Identity{operation{fieldDeclaration: All}}
}

func NewIdentityDeclared(fieldDeclaration Fields) *Identity {
	return &Identity{operation{fieldDeclaration: fieldDeclaration}}
}

// RegexParser extracts fields from the first regular expression match.
type RegexParser struct {
	operation
	Pattern *regexp.Regexp
	Groups  []int
}

func (*RegexParser) function() {}

func NewRegexParser(patternString string) (*RegexParser, error) {
	return NewRegexParserGroups(All, patternString, nil)
}

func NewRegexParserDeclared(fieldDeclaration Fields, patternString string) (*RegexParser, error) {
	return NewRegexParserGroups(fieldDeclaration, patternString, nil)
}

func NewRegexParserGroups(fieldDeclaration Fields, patternString string, groups []int) (*RegexParser, error) {
	pattern, err := regexp.Compile(patternString)
	if err != nil {
		return nil, fmt.Errorf("regex parser: %w", err)
	}

	return &RegexParser{operation: operation{fieldDeclaration: fieldDeclaration}, Pattern: pattern, Groups: groups}, nil
}

// DateParser parses a date field with a layout string.
type DateParser struct {
	operation
	Layout string
}

func (*DateParser) function() {}

func NewDateParser(fieldDeclaration Fields, dateFormatString string) *DateParser {
	return &DateParser{operation: operation{fieldDeclaration: fieldDeclaration}, Layout: dateFormatString}
}

// RegexFilter keeps (or with removeMatch, drops) tuples matching a pattern.
type RegexFilter struct {
	operation
	Pattern     *regexp.Regexp
	RemoveMatch bool
}

func (*RegexFilter) filter() {}

func NewRegexFilter(patternString string) (*RegexFilter, error) {
	return NewRegexFilterRemoving(patternString, false)
}

func NewRegexFilterRemoving(patternString string, removeMatch bool) (*RegexFilter, error) {
	pattern, err := regexp.Compile(patternString)
	if err != nil {
		return nil, fmt.Errorf("regex filter: %w", err)
	}

	return &RegexFilter{operation: operation{fieldDeclaration: All}, Pattern: pattern, RemoveMatch: removeMatch}, nil
}

// Count counts the tuples of a group.
type Count struct{ operation }

func (*Count) aggregator() {}

func NewCount(fieldDeclaration Fields) *Count {
	return &Count{operation{fieldDeclaration: fieldDeclaration}}
}

// Average averages a numeric field across a group.
type Average struct{ operation }

func (*Average) aggregator() {}

func NewAverage(fieldDeclaration Fields) *Average {
	return &Average{operation{fieldDeclaration: fieldDeclaration}}
}

// First keeps the first tuple of a group.
type First struct{ operation }

func (*First) aggregator() {}

func NewFirst() *First {
	return &First{operation{fieldDeclaration: All}}
}

func NewFirstDeclared(fieldDeclaration Fields) *First {
	return &First{operation{fieldDeclaration: fieldDeclaration}}
}

// FirstN emits at most Limit tuples per group.
type FirstN struct {
	operation
	Limit int
}

func (*FirstN) buffer() {}

func NewFirstN(limit int) (*FirstN, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("first n: limit must be positive, got %d", limit)
	}

	return &FirstN{operation: operation{fieldDeclaration: All}, Limit: limit}, nil
}
