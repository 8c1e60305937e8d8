// Package diff computes word-level differences between an original and an
// improved piece of text.
package diff

import (
	"fmt"
	"strings"
)

// Kind tags a Segment.
type Kind int

// Segment kinds
const (
	Unchanged Kind = iota
	Added
	Removed
)

func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name so JSON and YAML output read naturally.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unchanged":
		*k = Unchanged
	case "added":
		*k = Added
	case "removed":
		*k = Removed
	default:
		return fmt.Errorf("unknown diff kind %q", text)
	}
	return nil
}

// Segment is a run of text sharing one Kind.
type Segment struct {
	Kind Kind   `json:"type" yaml:"type"`
	Text string `json:"text" yaml:"text"`
}

// Compute returns the word-level diff of original against improved.
//
// Removed and Unchanged segments concatenate back to original, Added and
// Unchanged segments concatenate back to improved. No segment is empty and
// no two consecutive segments share a kind.
func Compute(original, improved string) []Segment {
	switch {
	case original == "" && improved == "":
		return []Segment{}
	case original == "":
		return []Segment{{Kind: Added, Text: improved}}
	case improved == "":
		return []Segment{{Kind: Removed, Text: original}}
	case original == improved:
		return []Segment{{Kind: Unchanged, Text: original}}
	}

	a := tokenize(original)
	b := tokenize(improved)
	pairs := commonSubsequence(a, b)

	var bld builder
	i, j := 0, 0
	for _, p := range pairs {
		for ; i < p.a; i++ {
			bld.add(Removed, a[i])
		}
		for ; j < p.b; j++ {
			bld.add(Added, b[j])
		}
		bld.add(Unchanged, a[i])
		i++
		j++
	}
	for ; i < len(a); i++ {
		bld.add(Removed, a[i])
	}
	for ; j < len(b); j++ {
		bld.add(Added, b[j])
	}

	return bld.segments()
}

// builder appends tokens to a running last segment, opening a new one only
// when the kind changes.
type builder struct {
	segs []Segment
	kind Kind
	cur  strings.Builder
}

func (b *builder) add(kind Kind, token string) {
	if b.cur.Len() > 0 && kind != b.kind {
		b.flush()
	}
	b.kind = kind
	b.cur.WriteString(token)
}

func (b *builder) flush() {
	b.segs = append(b.segs, Segment{Kind: b.kind, Text: b.cur.String()})
	b.cur.Reset()
}

func (b *builder) segments() []Segment {
	if b.cur.Len() > 0 {
		b.flush()
	}
	return b.segs
}

// Summary counts words (non-whitespace tokens) per kind.
type Summary struct {
	Added     int `json:"added" yaml:"added"`
	Removed   int `json:"removed" yaml:"removed"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

// HasChanges reports whether anything was added or removed.
func (s Summary) HasChanges() bool {
	return s.Added > 0 || s.Removed > 0
}

func (s Summary) String() string {
	if !s.HasChanges() {
		return "no changes"
	}
	return fmt.Sprintf("%d words added, %d words removed, %d unchanged", s.Added, s.Removed, s.Unchanged)
}

// Stats summarizes segs.
func Stats(segs []Segment) Summary {
	var s Summary
	for _, seg := range segs {
		n := len(strings.Fields(seg.Text))
		switch seg.Kind {
		case Added:
			s.Added += n
		case Removed:
			s.Removed += n
		default:
			s.Unchanged += n
		}
	}
	return s
}

// Reconstruct rebuilds both inputs from a segment list.
func Reconstruct(segs []Segment) (original, improved string) {
	var o, n strings.Builder
	for _, seg := range segs {
		switch seg.Kind {
		case Removed:
			o.WriteString(seg.Text)
		case Added:
			n.WriteString(seg.Text)
		default:
			o.WriteString(seg.Text)
			n.WriteString(seg.Text)
		}
	}
	return o.String(), n.String()
}
