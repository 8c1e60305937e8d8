package ai

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"resumeroast/internal/config"
	"resumeroast/internal/errors"
	"resumeroast/internal/sections"
	"resumeroast/internal/types"
)

// DefaultSystemPrompt sets the reviewer persona and the exact JSON shape the
// stream parser expects.
const DefaultSystemPrompt = `You are a resume reviewer who roasts weak resumes and then shows how to fix them. You know applicant tracking systems, industry keywords, resume structure, and how hiring managers skim a page.

Tone:
- Blunt. Name the problem plainly and skip the pleasantries.
- Funny when it helps, never cruel.
- Every criticism comes with something the candidate can do about it.

Respond with a single JSON object and nothing else: no markdown fences, no commentary. Emit the keys in this order so the first three can be shown while you are still writing:

{
  "overallScore": <integer 0-100>,
  "verdict": "needs_work" | "decent" | "strong" | "excellent",
  "roastSummary": "<two or three sentences summing up the resume>",
  "sections": [
    {
      "name": "<section name, e.g. Summary, Experience, Skills>",
      "score": <integer 0-100>,
      "severity": "critical" | "warning" | "good",
      "feedback": "<what is wrong or right with this section>",
      "improvements": ["<concrete change>", ...],
      "original": "<a short excerpt copied verbatim from the resume>",
      "improved": "<the same excerpt rewritten>",
      "improvementNotes": "<why the rewrite is better>"
    }
  ],
  "atsAnalysis": {
    "score": <integer 0-100>,
    "missingKeywords": ["<keyword the target role expects but the resume lacks>", ...],
    "presentKeywords": ["<relevant keyword already present>", ...],
    "suggestions": ["<ATS fix>", ...]
  },
  "quickWins": [
    {
      "title": "<short title>",
      "description": "<what to change and why it matters>",
      "impact": "high" | "medium" | "low"
    }
  ],
  "rewrittenSummary": "<an improved professional summary, if the resume has one>"
}

Scores:
- 0-40: critical problems, the resume needs a rebuild
- 41-60: significant room for improvement
- 61-80: a decent base that needs polish
- 81-100: strong, only minor tweaks left

Severity:
- "critical": likely to get the resume rejected
- "warning": a clear weakness worth fixing
- "good": solid, at most small suggestions

Only quote "original" text that actually appears in the resume. Do not invent experience, employers, dates or skills.`

// DefaultUserPromptTemplate is rendered with PromptData.
const DefaultUserPromptTemplate = `Roast this resume for the target role below.

Target role: {{.TargetRole}}
{{- if .Company}}
Target company: {{.Company}}
{{- end}}
{{- if .Sections}}
Sections found: {{.Sections}}
{{- end}}

Resume:
-----
{{.ResumeText}}
-----`

// PromptData is the data available to user prompt templates.
type PromptData struct {
	TargetRole string
	Company    string
	Sections   string
	ResumeText string
}

// PromptBuilder resolves the system prompt and renders the user prompt,
// preferring prompts from the store over the built-in defaults. Custom
// templates are re-parsed only when the store version changes.
type PromptBuilder struct {
	store *config.PromptStore

	mu      sync.Mutex
	version int
	source  string
	tmpl    *template.Template
}

// NewPromptBuilder creates a builder backed by store, which may be nil.
func NewPromptBuilder(store *config.PromptStore) *PromptBuilder {
	return &PromptBuilder{store: store, version: -1}
}

// Build returns the system and user prompts for req
func (b *PromptBuilder) Build(req *types.AnalysisRequest) (string, string, error) {
	system := resolvePrompt(b.store.System(), DefaultSystemPrompt)

	tmpl, err := b.template()
	if err != nil {
		return "", "", err
	}

	data := PromptData{
		TargetRole: strings.TrimSpace(req.TargetRole),
		Company:    strings.TrimSpace(req.Company),
		Sections:   strings.Join(sections.Names(req.ResumeText), ", "),
		ResumeText: strings.TrimSpace(req.ResumeText),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to render user prompt", err)
	}
	return system, buf.String(), nil
}

func (b *PromptBuilder) template() (*template.Template, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	version := b.store.Version()
	if b.tmpl != nil && version == b.version {
		return b.tmpl, nil
	}

	source := resolvePrompt(b.store.User(), DefaultUserPromptTemplate)
	if b.tmpl != nil && source == b.source {
		b.version = version
		return b.tmpl, nil
	}

	tmpl, err := template.New("user").Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Invalid user prompt template", err)
	}

	b.tmpl, b.source, b.version = tmpl, source, version
	return tmpl, nil
}

// resolvePrompt returns the configured prompt when set, else the default
func resolvePrompt(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}
