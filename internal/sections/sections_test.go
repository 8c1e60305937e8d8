package sections

import (
	"reflect"
	"testing"
)

const resume = `Jane Doe
jane@example.com

PROFESSIONAL SUMMARY
Backend engineer with 6 years of Go.

Work Experience:
Acme Corp - Senior Engineer
Managed a team of developers

Skills
Go, PostgreSQL, Kubernetes

Experience
(duplicate heading ignored)

Education
BSc Computer Science
`

func TestDetect(t *testing.T) {
	detected := Detect(resume)

	names := make([]string, len(detected))
	for i, d := range detected {
		names[i] = d.Name
	}
	want := []string{"Summary", "Experience", "Skills", "Education"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}

	for _, d := range detected {
		heading := resume[d.Start:d.End]
		if heading == "" {
			t.Errorf("%s: empty heading span", d.Name)
		}
	}
	if got := resume[detected[0].Start:detected[0].End]; got != "PROFESSIONAL SUMMARY" {
		t.Errorf("Expected summary heading span, got %q", got)
	}

	byName := ByName(detected)
	if byName["Skills"].Content != "Go, PostgreSQL, Kubernetes\n\nExperience\n(duplicate heading ignored)" {
		t.Errorf("Unexpected skills content %q", byName["Skills"].Content)
	}
	if byName["Education"].Content != "BSc Computer Science" {
		t.Errorf("Unexpected education content %q", byName["Education"].Content)
	}
}

func TestDetectIgnoresInlineMentions(t *testing.T) {
	text := "I have experience with skills like Go\nSkills are important\n"
	if got := Detect(text); len(got) != 0 {
		t.Errorf("Expected no headings, got %+v", got)
	}
}

func TestDetectHandlesCRLF(t *testing.T) {
	text := "Summary\r\nBuilder.\r\nProjects\r\nresumeroast\r\n"
	detected := Detect(text)
	if len(detected) != 2 {
		t.Fatalf("Expected 2 sections, got %+v", detected)
	}
	if text[detected[0].Start:detected[0].End] != "Summary" {
		t.Errorf("Expected heading span without line ending, got %q", text[detected[0].Start:detected[0].End])
	}
	if detected[1].Content != "resumeroast" {
		t.Errorf("Unexpected projects content %q", detected[1].Content)
	}
}

func TestNames(t *testing.T) {
	if got := Names("Awards\nTuring\nLanguages:\nFrench\n"); !reflect.DeepEqual(got, []string{"Awards", "Languages"}) {
		t.Errorf("Unexpected names %v", got)
	}
	if got := Names(""); len(got) != 0 {
		t.Errorf("Expected no names, got %v", got)
	}
}
