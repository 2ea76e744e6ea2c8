// Package narrative builds prompts for the text generator and the
// deterministic fallbacks used when generation fails.
package narrative

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
)

// ErrPrompt is returned when a prompt file cannot be read or a template fails.
var ErrPrompt = errors.New("prompt template error")

//go:embed prompts.toml
var defaultPrompts []byte

// Prompts holds the raw template sources.
type Prompts struct {
	ExplainRisk       string `toml:"explain_risk"`
	SummarizeFeedback string `toml:"summarize_feedback"`
	SuggestTraining   string `toml:"suggest_training"`
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	var p Prompts
	if err := toml.Unmarshal(defaultPrompts, &p); err != nil {
		panic(fmt.Sprintf("narrative: embedded prompts: %v", err))
	}
	return p
}

// LoadPrompts overlays the TOML file at path onto the defaults. Keys missing
// from the file keep their built-in value.
func LoadPrompts(path string) (Prompts, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("%w: read %s: %w", ErrPrompt, path, err)
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: parse %s: %w", ErrPrompt, path, err)
	}
	return p, nil
}

// Builder renders prompts from compiled templates. Safe for concurrent use.
type Builder struct {
	explain  *template.Template
	feedback *template.Template
	training *template.Template
}

// NewBuilder compiles p.
func NewBuilder(p Prompts) (*Builder, error) {
	b := &Builder{}
	for _, t := range []struct {
		name string
		src  string
		dst  **template.Template
	}{
		{"explain_risk", p.ExplainRisk, &b.explain},
		{"summarize_feedback", p.SummarizeFeedback, &b.feedback},
		{"suggest_training", p.SuggestTraining, &b.training},
	} {
		tmpl, err := template.New(t.name).Option("missingkey=error").Parse(t.src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrPrompt, t.name, err)
		}
		*t.dst = tmpl
	}
	return b, nil
}

// MustDefaultBuilder compiles the built-in templates.
func MustDefaultBuilder() *Builder {
	b, err := NewBuilder(DefaultPrompts())
	if err != nil {
		panic(err)
	}
	return b
}

// ExplainRisk renders the attrition explanation prompt.
func (b *Builder) ExplainRisk(rc RiskContext) (string, error) {
	return render(b.explain, rc)
}

// SummarizeFeedback renders the feedback summary prompt.
func (b *Builder) SummarizeFeedback(fc FeedbackContext) (string, error) {
	return render(b.feedback, fc)
}

// SuggestTraining renders the training plan prompt.
func (b *Builder) SuggestTraining(tc TrainingContext) (string, error) {
	return render(b.training, tc)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPrompt, t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
