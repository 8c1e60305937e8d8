package stream

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"resumeroast/internal/types"
)

type frameKind uint8

const (
	objectFrame frameKind = iota
	arrayFrame
)

type objectState uint8

const (
	wantKey objectState = iota
	inKey
	wantColon
	wantValue
	wantComma
)

// frame is one open container. key is the member name the container was
// opened under in its parent object, empty for the root and array elements.
type frame struct {
	kind   frameKind
	key    string
	state  objectState
	curKey string
	keys   int
}

// scanner walks a growing JSON-ish buffer one byte at a time, tracking
// container depth and string state, and records the headline scalar fields
// as soon as their values close. It is resumable: feed may be called with
// any split of the input and produces the same result as one call.
//
// Bytes outside a root object are ignored so leading prose or a markdown
// fence never opens a string. A '{' whose first token is not a key is not a
// root. When a root closes, scanning resumes at the next '{'.
type scanner struct {
	stack []frame

	inString bool
	escaped  bool
	str      strings.Builder

	inLiteral bool
	lit       strings.Builder

	found types.PartialAnalysis
}

func (s *scanner) feed(chunk string) {
	for i := 0; i < len(chunk); i++ {
		s.step(chunk[i])
	}
}

// finish flushes a literal still open at end of input. A number is only
// known to be complete once a delimiter follows it, or the input ends.
func (s *scanner) finish() {
	if s.inLiteral {
		s.closeLiteral()
	}
}

func (s *scanner) step(c byte) {
	if len(s.stack) == 0 {
		if c == '{' {
			s.stack = append(s.stack, frame{kind: objectFrame})
		}
		return
	}

	if s.inString {
		switch {
		case s.escaped:
			s.escaped = false
			s.str.WriteByte(c)
		case c == '\\':
			s.escaped = true
			s.str.WriteByte(c)
		case c == '"':
			s.inString = false
			s.closeString()
		default:
			s.str.WriteByte(c)
		}
		return
	}

	if s.inLiteral {
		if !isDelimiter(c) {
			s.lit.WriteByte(c)
			return
		}
		s.closeLiteral()
	}

	top := &s.stack[len(s.stack)-1]
	if len(s.stack) == 1 && top.keys == 0 && top.state == wantKey && !isSpace(c) && c != '"' && c != '}' {
		s.stack = s.stack[:0]
		return
	}

	switch c {
	case ' ', '\t', '\n', '\r':
	case '"':
		s.inString = true
		s.str.Reset()
		if top.kind == objectFrame && top.state == wantKey {
			top.state = inKey
		}
	case '{', '[':
		key := ""
		if top.kind == objectFrame {
			key = top.curKey
			top.state = wantComma
		}
		kind := objectFrame
		if c == '[' {
			kind = arrayFrame
		}
		s.stack = append(s.stack, frame{kind: kind, key: key})
	case '}', ']':
		s.stack = s.stack[:len(s.stack)-1]
		if len(s.stack) == 0 {
			return
		}
		parent := &s.stack[len(s.stack)-1]
		if parent.kind == objectFrame {
			parent.state = wantComma
		}
	case ':':
		if top.kind == objectFrame && top.state == wantColon {
			top.state = wantValue
		}
	case ',':
		if top.kind == objectFrame {
			top.state = wantKey
			top.curKey = ""
		}
	default:
		if top.kind == arrayFrame || top.state == wantValue {
			s.inLiteral = true
			s.lit.Reset()
			s.lit.WriteByte(c)
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', '}', ']', ':', '"', '{', '[':
		return true
	}
	return false
}

func (s *scanner) closeString() {
	top := &s.stack[len(s.stack)-1]
	if top.kind == objectFrame && top.state == inKey {
		top.curKey = decodeString(s.str.String())
		top.state = wantColon
		top.keys++
		return
	}
	valueOwner := top.kind == objectFrame && top.state == wantValue
	if top.kind == objectFrame {
		top.state = wantComma
	}
	if !valueOwner || len(s.stack) != 1 {
		return
	}

	switch top.curKey {
	case "verdict":
		if s.found.Verdict != nil {
			return
		}
		if v, ok := types.ParseVerdict(decodeString(s.str.String())); ok {
			s.found.Verdict = &v
		}
	case "roastSummary":
		if s.found.RoastSummary == nil {
			text := decodeString(s.str.String())
			s.found.RoastSummary = &text
		}
	}
}

func (s *scanner) closeLiteral() {
	s.inLiteral = false
	top := &s.stack[len(s.stack)-1]
	if top.kind != objectFrame || top.state != wantValue {
		return
	}
	top.state = wantComma

	n, ok := parseInt(s.lit.String())
	if !ok {
		return
	}
	switch {
	case len(s.stack) == 1 && top.curKey == "overallScore":
		if s.found.OverallScore == nil {
			s.found.OverallScore = &n
		}
	case len(s.stack) == 2 && top.key == "atsAnalysis" && top.curKey == "score":
		if s.found.ATSAnalysis == nil {
			s.found.ATSAnalysis = &types.ATSAnalysis{Score: &n}
		}
	}
}

// parseInt accepts JSON numbers within the int range; fractional scores
// are truncated.
func parseInt(lit string) (int, bool) {
	if n, err := strconv.Atoi(lit); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// decodeString unescapes the raw body of a JSON string. Bodies that are not
// valid JSON (raw control characters, say) only get their quotes unescaped.
func decodeString(raw string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &out); err == nil {
		return out
	}
	return strings.ReplaceAll(raw, `\"`, `"`)
}
