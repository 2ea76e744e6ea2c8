package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okian/smarthr/internal/adapters/llm"
	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/narrative"
	"github.com/okian/smarthr/internal/domain/scoring"
	"github.com/okian/smarthr/pkg/logger"
	"github.com/okian/smarthr/pkg/metrics"
)

// Narrative sources.
const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"

	// outcomeCacheHit labels generated text served from the narrative cache.
	outcomeCacheHit = "cache_hit"
)

// ExplainResult is the outcome of ExplainAttritionRisk.
type ExplainResult struct {
	Explanation string  `json:"explanation"`
	Source      string  `json:"source"`
	RiskScore   float64 `json:"riskScore"`
}

// FeedbackSummary is the outcome of SummarizeFeedback.
type FeedbackSummary struct {
	Summary string `json:"summary"`
	Source  string `json:"source"`
	Count   int    `json:"count"`
}

// TrainingPlan is the outcome of SuggestTraining.
type TrainingPlan struct {
	Plan   string `json:"plan"`
	Source string `json:"source"`
}

// ExplainAttritionRisk asks the narrative generator to explain the employee's
// current risk. Generator failures fall back to a locally built explanation
// from the same signals, so only not-found, validation and store failures
// surface as errors.
func (s *Service) ExplainAttritionRisk(ctx context.Context, employeeID string) (ExplainResult, error) {
	start := time.Now()
	res, err := s.explainAttritionRisk(ctx, employeeID)
	s.observeAction(ActionExplainRisk, start, err)
	return res, err
}

func (s *Service) explainAttritionRisk(ctx context.Context, employeeID string) (ExplainResult, error) {
	b, err := s.loadSignals(ctx, employeeID, explainFeedbackWindow)
	if err != nil {
		return ExplainResult{}, s.classify(ctx, "attrition risk explanation", err)
	}
	a, err := s.assess(b)
	if err != nil {
		return ExplainResult{}, s.computationFailure(ctx, "attrition risk explanation", err)
	}
	latest, prior := b.trend()
	rc := narrative.RiskContext{
		Employee:     b.employee,
		Assessment:   a,
		LatestSurvey: b.latestSurvey(),
		Latest:       latest,
		Prior:        prior,
		Feedback:     b.feedback,
	}

	text, source := s.narrate(ctx, ActionExplainRisk,
		func() (string, error) { return s.prompts.ExplainRisk(rc) },
		func() string { return narrative.FallbackExplanation(rc) })
	return ExplainResult{Explanation: text, Source: source, RiskScore: a.Score}, nil
}

// SummarizeFeedback summarizes feedback about an employee received within
// timeframe (for example "30d", "6 months", "1y" or "all").
func (s *Service) SummarizeFeedback(ctx context.Context, employeeID, timeframe string) (FeedbackSummary, error) {
	start := time.Now()
	res, err := s.summarizeFeedback(ctx, employeeID, timeframe)
	s.observeAction(ActionSummarizeFeedback, start, err)
	return res, err
}

func (s *Service) summarizeFeedback(ctx context.Context, employeeID, timeframe string) (FeedbackSummary, error) {
	since, label, err := parseTimeframe(timeframe, s.now())
	if err != nil {
		return FeedbackSummary{}, err
	}
	e, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return FeedbackSummary{}, err
	}
	all, err := s.store.Feedback(ctx, employeeID, 0)
	if err != nil {
		return FeedbackSummary{}, s.classify(ctx, "feedback summary", err)
	}

	fc := narrative.FeedbackContext{Employee: e, Timeframe: label, Since: since, CountsByType: map[string]int{}}
	for _, f := range all {
		if !since.IsZero() && f.Date.Before(since) {
			continue
		}
		fc.Feedback = append(fc.Feedback, f)
		t := f.Type
		if t == "" {
			t = "other"
		}
		fc.CountsByType[t]++
	}

	// Nothing to summarize: the local sentence is the answer.
	if len(fc.Feedback) == 0 {
		return FeedbackSummary{Summary: narrative.FallbackFeedbackSummary(fc), Source: SourceFallback}, nil
	}
	text, source := s.narrate(ctx, ActionSummarizeFeedback,
		func() (string, error) { return s.prompts.SummarizeFeedback(fc) },
		func() string { return narrative.FallbackFeedbackSummary(fc) })
	return FeedbackSummary{Summary: text, Source: source, Count: len(fc.Feedback)}, nil
}

// SuggestTraining builds a personalized training plan for the given gaps,
// grounded on the recommendation rules.
func (s *Service) SuggestTraining(ctx context.Context, employeeID, gaps string) (TrainingPlan, error) {
	start := time.Now()
	res, err := s.suggestTraining(ctx, employeeID, gaps)
	s.observeAction(ActionSuggestTraining, start, err)
	return res, err
}

func (s *Service) suggestTraining(ctx context.Context, employeeID, gaps string) (TrainingPlan, error) {
	e, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return TrainingPlan{}, err
	}
	latest, err := s.latestPerformance(ctx, employeeID)
	if err != nil {
		return TrainingPlan{}, s.classify(ctx, "training plan", err)
	}
	tc := narrative.TrainingContext{
		Employee:       e,
		Gaps:           strings.TrimSpace(gaps),
		Latest:         latest,
		Recommendation: scoring.Recommend(e.Role, latest),
	}
	text, source := s.narrate(ctx, ActionSuggestTraining,
		func() (string, error) { return s.prompts.SuggestTraining(tc) },
		func() string { return narrative.FallbackTrainingPlan(tc) })
	return TrainingPlan{Plan: text, Source: source}, nil
}

// narrate renders a prompt and sends it to the generator once. Any failure,
// including an empty answer, yields the fallback text.
func (s *Service) narrate(ctx context.Context, action string, prompt func() (string, error), fallback func() string) (string, string) {
	provider := llm.ProviderOf(s.generator)

	p, err := prompt()
	if err == nil {
		var text string
		genCtx, cached := llm.WithCacheTracking(ctx)
		start := time.Now()
		text, err = s.generator.Generate(genCtx, p)
		if !*cached {
			metrics.RecordNarrativeDuration(provider, float64(time.Since(start).Microseconds())/1000)
		}
		if text = strings.TrimSpace(text); err == nil && text == "" {
			err = llm.ErrEmptyResponse
		}
		if err == nil {
			outcome := SourceGenerated
			if *cached {
				outcome = outcomeCacheHit
			}
			metrics.RecordNarrative(provider, outcome)
			return text, SourceGenerated
		}
	}

	metrics.RecordNarrative(provider, SourceFallback)
	if errors.Is(err, llm.ErrDisabled) {
		return fallback(), SourceFallback
	}
	err = fmt.Errorf("%w: %w", model.ErrExternalService, err)
	s.logger.Warn(ctx, "narrative generation failed, using fallback",
		logger.String("action", action),
		logger.String("provider", provider),
		logger.Error(err))
	return fallback(), SourceFallback
}

var timeframePattern = regexp.MustCompile(`^(\d+)\s*([a-z]+)$`)

// parseTimeframe turns "30d", "2 weeks", "6 months", "1y" or "all" into a
// lower bound. An empty timeframe means all feedback.
func parseTimeframe(tf string, now time.Time) (time.Time, string, error) {
	tf = strings.ToLower(strings.TrimSpace(tf))
	switch tf {
	case "", "all", "all time":
		return time.Time{}, "all time", nil
	case "last quarter", "quarter":
		return now.AddDate(0, -3, 0), "the last quarter", nil
	case "last year", "year":
		return now.AddDate(-1, 0, 0), "the last year", nil
	}
	m := timeframePattern.FindStringSubmatch(tf)
	if m == nil {
		return time.Time{}, "", model.Invalidf("unrecognized timeframe %q", tf)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return time.Time{}, "", model.Invalidf("timeframe must be a positive count, got %q", tf)
	}
	var (
		since time.Time
		unit  string
	)
	switch strings.TrimSuffix(m[2], "s") {
	case "d", "day":
		since, unit = now.AddDate(0, 0, -n), "day"
	case "w", "week":
		since, unit = now.AddDate(0, 0, -7*n), "week"
	case "m", "mo", "month":
		since, unit = now.AddDate(0, -n, 0), "month"
	case "q", "quarter":
		since, unit = now.AddDate(0, -3*n, 0), "quarter"
	case "y", "year":
		since, unit = now.AddDate(-n, 0, 0), "year"
	default:
		return time.Time{}, "", model.Invalidf("unrecognized timeframe unit in %q", tf)
	}
	if n != 1 {
		unit += "s"
	}
	return since, fmt.Sprintf("the last %d %s", n, unit), nil
}
