// Package sections finds the conventional headings of a plain-text resume.
package sections

import (
	"regexp"
	"sort"
	"strings"
)

// Detected is a heading found in the text. Start and End are byte offsets of
// the heading line; Content runs from the end of the heading to the next
// detected heading (or the end of the text), trimmed.
type Detected struct {
	Name    string `json:"name" yaml:"name"`
	Start   int    `json:"startIndex" yaml:"startIndex"`
	End     int    `json:"endIndex" yaml:"endIndex"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

type pattern struct {
	name string
	re   *regexp.Regexp
}

func heading(name string, alternatives ...string) pattern {
	return pattern{
		name: name,
		re:   regexp.MustCompile(`(?i)^(` + strings.Join(alternatives, "|") + `)[\s:]*$`),
	}
}

var patterns = []pattern{
	heading("Summary", "summary", "professional summary", "profile", "about me", "objective", "career objective"),
	heading("Experience", "experience", "work experience", "employment", "professional experience", "work history"),
	heading("Education", "education", "educational background", "academic background", "qualifications"),
	heading("Skills", "skills", "technical skills", "core competencies", "competencies", "expertise", "technologies"),
	heading("Projects", "projects", "personal projects", "key projects", "selected projects", "portfolio"),
	heading("Certifications", "certifications", "certificates", "licenses", "credentials"),
	heading("Languages", "languages", "language skills"),
	heading("Awards", "awards", "honors", "achievements", "accomplishments"),
}

// Detect returns the first heading line of each known section, in document order.
func Detect(text string) []Detected {
	var found []Detected
	seen := make(map[string]bool)

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		start := offset
		offset += len(line)
		body := strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(body)
		if trimmed == "" {
			continue
		}

		for _, p := range patterns {
			if !p.re.MatchString(trimmed) {
				continue
			}
			if !seen[p.name] {
				seen[p.name] = true
				found = append(found, Detected{Name: p.name, Start: start, End: start + len(body)})
			}
			break
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Start < found[j].Start })

	for i := range found {
		end := len(text)
		if i+1 < len(found) {
			end = found[i+1].Start
		}
		found[i].Content = strings.TrimSpace(text[found[i].End:end])
	}
	return found
}

// Names returns the detected section names in document order.
func Names(text string) []string {
	detected := Detect(text)
	names := make([]string, len(detected))
	for i, d := range detected {
		names[i] = d.Name
	}
	return names
}

// ByName indexes detected sections by name.
func ByName(detected []Detected) map[string]Detected {
	out := make(map[string]Detected, len(detected))
	for _, d := range detected {
		out[d.Name] = d
	}
	return out
}
