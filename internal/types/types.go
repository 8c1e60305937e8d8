package types

// Verdict is the overall assessment bucket the reviewer assigns to a resume.
type Verdict string

const (
	VerdictNeedsWork Verdict = "needs_work"
	VerdictDecent    Verdict = "decent"
	VerdictStrong    Verdict = "strong"
	VerdictExcellent Verdict = "excellent"
)

// Verdicts lists the closed set of verdict values, worst first.
var Verdicts = []Verdict{VerdictNeedsWork, VerdictDecent, VerdictStrong, VerdictExcellent}

// ParseVerdict returns the verdict for s and whether s is one of the known values.
func ParseVerdict(s string) (Verdict, bool) {
	for _, v := range Verdicts {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// Severity classifies a single section's problems.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityGood     Severity = "good"
)

// Impact ranks a quick win.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Section is the reviewer's feedback for one resume section.
type Section struct {
	Name             string   `json:"name" yaml:"name"`
	Score            int      `json:"score" yaml:"score"` // 0-100
	Severity         Severity `json:"severity" yaml:"severity"`
	Feedback         string   `json:"feedback" yaml:"feedback"`
	Improvements     []string `json:"improvements,omitempty" yaml:"improvements,omitempty"`
	Original         string   `json:"original,omitempty" yaml:"original,omitempty"`
	Improved         string   `json:"improved,omitempty" yaml:"improved,omitempty"`
	ImprovementNotes string   `json:"improvementNotes,omitempty" yaml:"improvementNotes,omitempty"`
}

// ATSAnalysis represents the applicant tracking system keyword analysis
type ATSAnalysis struct {
	Score           *int     `json:"score,omitempty" yaml:"score,omitempty"`
	MissingKeywords []string `json:"missingKeywords,omitempty" yaml:"missingKeywords,omitempty"`
	PresentKeywords []string `json:"presentKeywords,omitempty" yaml:"presentKeywords,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// QuickWin is a small, high-leverage change the candidate can make right away.
type QuickWin struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Impact      Impact `json:"impact" yaml:"impact"`
}

// PartialAnalysis mirrors the analysis document the model is asked to produce.
// Every field is optional: mid-stream only the scalars may be known, and a
// finalized result carries whatever could be recovered.
type PartialAnalysis struct {
	OverallScore     *int         `json:"overallScore,omitempty" yaml:"overallScore,omitempty"`
	Verdict          *Verdict     `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	RoastSummary     *string      `json:"roastSummary,omitempty" yaml:"roastSummary,omitempty"`
	Sections         []Section    `json:"sections,omitempty" yaml:"sections,omitempty"`
	ATSAnalysis      *ATSAnalysis `json:"atsAnalysis,omitempty" yaml:"atsAnalysis,omitempty"`
	QuickWins        []QuickWin   `json:"quickWins,omitempty" yaml:"quickWins,omitempty"`
	RewrittenSummary *string      `json:"rewrittenSummary,omitempty" yaml:"rewrittenSummary,omitempty"`
}

// IsEmpty reports whether no field at all could be recovered.
func (p *PartialAnalysis) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.OverallScore == nil &&
		p.Verdict == nil &&
		p.RoastSummary == nil &&
		len(p.Sections) == 0 &&
		p.ATSAnalysis == nil &&
		len(p.QuickWins) == 0 &&
		p.RewrittenSummary == nil
}

// HasScalars reports whether any of the headline scalar fields is present.
func (p *PartialAnalysis) HasScalars() bool {
	return p != nil && (p.OverallScore != nil || p.Verdict != nil || p.RoastSummary != nil)
}

// ATSScore returns the nested ATS score, if known.
func (p *PartialAnalysis) ATSScore() *int {
	if p == nil || p.ATSAnalysis == nil {
		return nil
	}
	return p.ATSAnalysis.Score
}

// Clone returns a deep copy so snapshots handed to callers never alias parser state.
func (p *PartialAnalysis) Clone() *PartialAnalysis {
	if p == nil {
		return nil
	}
	out := &PartialAnalysis{
		OverallScore:     cloneInt(p.OverallScore),
		RoastSummary:     cloneString(p.RoastSummary),
		RewrittenSummary: cloneString(p.RewrittenSummary),
	}
	if p.Verdict != nil {
		v := *p.Verdict
		out.Verdict = &v
	}
	if p.Sections != nil {
		out.Sections = make([]Section, len(p.Sections))
		for i, s := range p.Sections {
			s.Improvements = cloneStrings(s.Improvements)
			out.Sections[i] = s
		}
	}
	if p.ATSAnalysis != nil {
		out.ATSAnalysis = &ATSAnalysis{
			Score:           cloneInt(p.ATSAnalysis.Score),
			MissingKeywords: cloneStrings(p.ATSAnalysis.MissingKeywords),
			PresentKeywords: cloneStrings(p.ATSAnalysis.PresentKeywords),
			Suggestions:     cloneStrings(p.ATSAnalysis.Suggestions),
		}
	}
	if p.QuickWins != nil {
		out.QuickWins = append([]QuickWin(nil), p.QuickWins...)
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneStrings(v []string) []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v...)
}

// AnalysisRequest is the input for a roast
type AnalysisRequest struct {
	ResumeText string `json:"resumeText"`
	TargetRole string `json:"targetRole"`
	Company    string `json:"company,omitempty"`
}

// ParseResponse is returned by the resume upload endpoint.
type ParseResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DiffRequest asks for a word diff between two texts.
type DiffRequest struct {
	Original string `json:"original"`
	Improved string `json:"improved"`
}
