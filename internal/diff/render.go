package diff

import "github.com/sergi/go-diff/diffmatchpatch"

// ToDiffs converts segments into diffmatchpatch operations.
func ToDiffs(segs []Segment) []diffmatchpatch.Diff {
	out := make([]diffmatchpatch.Diff, 0, len(segs))
	for _, seg := range segs {
		op := diffmatchpatch.DiffEqual
		switch seg.Kind {
		case Added:
			op = diffmatchpatch.DiffInsert
		case Removed:
			op = diffmatchpatch.DiffDelete
		}
		out = append(out, diffmatchpatch.Diff{Type: op, Text: seg.Text})
	}
	return out
}

// Patch renders segs as GNU-style patch text against original.
func Patch(original string, segs []Segment) string {
	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(original, ToDiffs(segs))
	return dmp.PatchToText(patches)
}

// PrettyText renders segs inline with ANSI colours: insertions green, deletions red.
func PrettyText(segs []Segment) string {
	return diffmatchpatch.New().DiffPrettyText(ToDiffs(segs))
}

// Distance is the Levenshtein distance of the edit, counted in characters.
func Distance(segs []Segment) int {
	return diffmatchpatch.New().DiffLevenshtein(ToDiffs(segs))
}
