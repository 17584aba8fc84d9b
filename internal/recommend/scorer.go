package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"pod-service/internal/ai"
	"pod-service/internal/logger"
	"pod-service/internal/models"
	"pod-service/internal/observability"
)

const fallbackReason = "Compatibility scoring is unavailable right now."

var matchSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score": map[string]any{"type": "number"},
		"compatibility": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"schedule": map[string]any{"type": "number"},
				"pace":     map[string]any{"type": "number"},
				"subject":  map[string]any{"type": "number"},
				"goal":     map[string]any{"type": "number"},
			},
			"required":             []string{"schedule", "pace", "subject", "goal"},
			"additionalProperties": false,
		},
		"reasons": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required":             []string{"score", "compatibility", "reasons"},
	"additionalProperties": false,
}

const scorerSystemPrompt = `You rate how well a student fits a study pod.
Return a score from 0 to 100, sub-scores from 0 to 100 for schedule overlap, study pace,
subject fit and goal alignment, and two to four short reasons.`

// Scorer asks the AI provider for a pod match and never fails.
type Scorer struct {
	client  ai.Client
	timeout time.Duration
	log     *logger.Logger
}

func NewScorer(client ai.Client, timeout time.Duration, log *logger.Logger) *Scorer {
	return &Scorer{client: client, timeout: timeout, log: log.With("component", "scorer")}
}

type scoringInput struct {
	Student struct {
		Subjects     []string `json:"subjects"`
		Pace         string   `json:"pace"`
		Availability []string `json:"availability"`
		Goals        []string `json:"goals"`
	} `json:"student"`
	Pod struct {
		Name         string   `json:"name"`
		Subject      string   `json:"subject"`
		Description  string   `json:"description"`
		Pace         string   `json:"pace"`
		Availability []string `json:"availability"`
		Goals        []string `json:"goals"`
	} `json:"pod"`
}

type scoringOutput struct {
	Score         *float64 `json:"score"`
	Compatibility struct {
		Schedule float64 `json:"schedule"`
		Pace     float64 `json:"pace"`
		Subject  float64 `json:"subject"`
		Goal     float64 `json:"goal"`
	} `json:"compatibility"`
	Reasons []string `json:"reasons"`
}

// CalculatePodMatch scores profile against pod. Provider errors and unusable output yield a
// zero-score fallback; every returned value is within [0,100].
func (s *Scorer) CalculatePodMatch(ctx context.Context, profile models.UserProfile, pod models.Pod) models.PodMatch {
	input := buildInput(profile, pod)
	payload, err := json.Marshal(input)
	if err != nil {
		return s.fallback("encode", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.client.GenerateJSON(ctx, scorerSystemPrompt, string(payload), "pod_match", matchSchema)
	if err != nil {
		reason := "provider_error"
		if errors.Is(err, ai.ErrDisabled) {
			reason = "disabled"
		}
		return s.fallback(reason, err)
	}

	var out scoringOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return s.fallback("invalid_response", err)
	}
	if out.Score == nil {
		return s.fallback("invalid_response", errors.New("missing score"))
	}

	reasons := make([]string, 0, len(out.Reasons))
	for _, r := range out.Reasons {
		if r = strings.TrimSpace(r); r != "" {
			reasons = append(reasons, r)
		}
	}

	return models.PodMatch{
		Score: clamp(*out.Score),
		Compatibility: models.Compatibility{
			Schedule: clamp(out.Compatibility.Schedule),
			Pace:     clamp(out.Compatibility.Pace),
			Subject:  clamp(out.Compatibility.Subject),
			Goal:     clamp(out.Compatibility.Goal),
		},
		Reasons: reasons,
	}
}

func (s *Scorer) fallback(reason string, err error) models.PodMatch {
	observability.IncScorerFallback(reason)
	s.log.Warn("pod match fallback", "reason", reason, "error", err)
	return FallbackMatch()
}

// FallbackMatch is the neutral result used when scoring is unavailable.
func FallbackMatch() models.PodMatch {
	return models.PodMatch{
		Score:    0,
		Reasons:  []string{fallbackReason},
		Fallback: true,
	}
}

func buildInput(profile models.UserProfile, pod models.Pod) scoringInput {
	var in scoringInput
	in.Student.Subjects = orEmpty(profile.Subjects)
	in.Student.Pace = profile.Pace
	in.Student.Availability = orEmpty(profile.Availability)
	in.Student.Goals = orEmpty(profile.Goals)
	in.Pod.Name = pod.Name
	in.Pod.Subject = pod.Subject
	in.Pod.Description = pod.Description
	in.Pod.Pace = pod.Pace
	in.Pod.Availability = orEmpty(pod.Availability)
	in.Pod.Goals = orEmpty(pod.Goals)
	return in
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func clamp(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return int(r)
}
