package diff

// Result bundles a computed diff with the texts it was computed from.
// Name is set when the diff covers a single resume section.
type Result struct {
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Original string    `json:"-" yaml:"-"`
	Improved string    `json:"-" yaml:"-"`
	Segments []Segment `json:"segments" yaml:"segments"`
	Stats    Summary   `json:"stats" yaml:"stats"`
}

// NewResult diffs original against improved.
func NewResult(name, original, improved string) Result {
	segs := Compute(original, improved)
	return Result{
		Name:     name,
		Original: original,
		Improved: improved,
		Segments: segs,
		Stats:    Stats(segs),
	}
}

// Patch renders the result as patch text against Original.
func (r Result) Patch() string {
	return Patch(r.Original, r.Segments)
}
