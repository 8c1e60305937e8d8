// Package stream turns an incrementally delivered model response into
// partial analysis snapshots and, once the response ends, a best-effort
// final analysis.
package stream

import (
	"encoding/json"
	"errors"
	"strings"

	"resumeroast/internal/types"
)

// State is the parser lifecycle.
type State int

const (
	Streaming State = iota
	Finalized
)

func (s State) String() string {
	if s == Finalized {
		return "finalized"
	}
	return "streaming"
}

// Method records how Finalize produced its result.
type Method string

const (
	MethodNone     Method = ""
	MethodStrict   Method = "strict"
	MethodSalvaged Method = "salvaged"
	MethodPartial  Method = "partial"
)

// Parser accumulates one response. It is not safe for concurrent use; each
// request owns its own instance.
type Parser struct {
	buf    strings.Builder
	scan   scanner
	chunks int

	last   *types.PartialAnalysis
	state  State
	result *types.PartialAnalysis
	method Method
}

func NewParser() *Parser {
	return &Parser{}
}

// AddChunk appends chunk and returns a snapshot of everything extracted so
// far when overallScore, verdict or roastSummary is new or changed since the
// previous snapshot. It returns nil otherwise, and always after Finalize.
func (p *Parser) AddChunk(chunk string) *types.PartialAnalysis {
	if p.state == Finalized {
		return nil
	}
	p.chunks++
	p.buf.WriteString(chunk)
	p.scan.feed(chunk)

	current := &p.scan.found
	if !scalarsChanged(p.last, current) {
		return nil
	}
	p.last = current.Clone()
	return p.last.Clone()
}

func scalarsChanged(prev, cur *types.PartialAnalysis) bool {
	if prev == nil {
		return cur.HasScalars()
	}
	return !equalInt(prev.OverallScore, cur.OverallScore) ||
		!equalVerdict(prev.Verdict, cur.Verdict) ||
		!equalString(prev.RoastSummary, cur.RoastSummary)
}

func equalInt(a, b *int) bool {
	return (a == nil && b == nil) || (a != nil && b != nil && *a == *b)
}

func equalVerdict(a, b *types.Verdict) bool {
	return (a == nil && b == nil) || (a != nil && b != nil && *a == *b)
}

func equalString(a, b *string) bool {
	return (a == nil && b == nil) || (a != nil && b != nil && *a == *b)
}

// Finalize ends the stream and returns the best analysis recoverable from
// the whole buffer: strict JSON, then the span from the first '{' to the
// last '}', then partial extraction. It never fails; the result may be
// empty. Repeated calls return the cached result.
func (p *Parser) Finalize() *types.PartialAnalysis {
	if p.state == Finalized {
		return p.result.Clone()
	}
	p.state = Finalized

	content := p.buf.String()
	if result, ok := parseStrict(content); ok {
		p.result, p.method = result, MethodStrict
	} else if result, ok := salvage(content); ok {
		p.result, p.method = result, MethodSalvaged
	} else {
		p.result, p.method = ExtractPartial(content), MethodPartial
	}
	return p.result.Clone()
}

// Content returns the raw accumulated text.
func (p *Parser) Content() string {
	return p.buf.String()
}

func (p *Parser) State() State {
	return p.state
}

// Method is MethodNone until Finalize runs.
func (p *Parser) Method() Method {
	return p.method
}

// Chunks counts the chunks accepted while streaming.
func (p *Parser) Chunks() int {
	return p.chunks
}

// ExtractPartial runs the scalar extraction over a complete buffer.
func ExtractPartial(content string) *types.PartialAnalysis {
	var s scanner
	s.feed(content)
	s.finish()
	return s.found.Clone()
}

// parseStrict decodes text as a JSON object. Members whose JSON type does
// not fit the analysis shape are dropped; the rest are kept.
func parseStrict(text string) (*types.PartialAnalysis, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
		return nil, false
	}

	var out types.PartialAnalysis
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, false
		}
	}
	return &out, true
}

func salvage(text string) (*types.PartialAnalysis, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	return parseStrict(text[start : end+1])
}
