// Package ai answers operator questions: a deterministic rule-based template
// by default, a hosted chat-completion backend when a credential is
// configured. Any failure on the hosted path silently falls back to the
// template — the operator always gets an answer.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"SafetyHMI.dashboard/internal/config"
)

const systemPrompt = "You are an industrial safety assistant for a pharmaceutical facility. " +
	"Use the provided context (room, gas, latest value, thresholds, baseline stats, trend slope, etc.). " +
	"If status=ALARM, prioritize life safety and isolation. If status=WARN, recommend immediate mitigations. " +
	"Be concise, with short paragraphs and bullets when helpful."

// Context carries the detector snapshot interpolated into the answer.
type Context struct {
	Room              string    `json:"room"`
	Gas               string    `json:"gas"`
	Status            string    `json:"status"`
	Value             *float64  `json:"value,omitempty"`
	Units             string    `json:"units,omitempty"`
	Warn              *float64  `json:"warn,omitempty"`
	Alarm             *float64  `json:"alarm,omitempty"`
	Mean              *float64  `json:"mean,omitempty"`
	Std               *float64  `json:"std,omitempty"`
	ProjectionMinutes *int      `json:"projection_minutes,omitempty"`
	Simulate          bool      `json:"simulate,omitempty"`
	RecentSeries      []float64 `json:"recent_series,omitempty"`
}

// Responder holds the hosted-backend configuration. A zero API key means the
// rule path is the only path.
type Responder struct {
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
}

func NewResponder(cfg config.Config) *Responder {
	return &Responder{
		apiKey:  cfg.OpenAIKey,
		model:   cfg.AIModel,
		baseURL: strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		client:  resty.New().SetTimeout(cfg.AITimeout),
	}
}

// Available reports whether the hosted backend can be attempted.
func (r *Responder) Available() bool {
	return r.apiKey != ""
}

// BackendName names the path Ask would take.
func (r *Responder) BackendName(forceRule bool) string {
	if forceRule {
		return "Rule-based (forced)"
	}
	if r.Available() {
		return "OpenAI"
	}
	return "Rule-based"
}

// Ask returns the answer and the backend that produced it. The rule path is
// taken when forced, when no credential is configured, or when the hosted
// call fails for any reason.
func (r *Responder) Ask(ctx context.Context, prompt string, c Context, forceRule bool) (string, string) {
	if forceRule || !r.Available() {
		return ruleBased(prompt, c), r.BackendName(forceRule)
	}
	answer, err := r.hosted(ctx, prompt, c)
	if err != nil {
		return ruleBased(prompt, c), "Rule-based"
	}
	return answer, "OpenAI"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (r *Responder) hosted(ctx context.Context, prompt string, c Context) (string, error) {
	req := chatCompletionRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Context: %+v\n\nQuestion: %s", c, prompt)},
		},
		Temperature: 0.3,
		MaxTokens:   350,
	}

	var out chatCompletionResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(r.apiKey).
		SetBody(req).
		SetResult(&out).
		Post(r.baseURL + "/chat/completions")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("chat completion returned %s", resp.Status())
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat completion returned no content")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// ruleBased builds the canned markdown answer from the context snapshot.
func ruleBased(prompt string, c Context) string {
	room := c.Room
	if room == "" {
		room = "Unknown room"
	}
	gas := c.Gas
	if gas == "" {
		gas = "Unknown gas"
	}
	status := c.Status
	if status == "" {
		status = "OK"
	}

	var advice []string
	advice = append(advice, fmt.Sprintf("Room: **%s** • Gas: **%s** • Status: **%s**", room, gas, status))
	if c.Mean != nil && c.Std != nil {
		advice = append(advice, fmt.Sprintf("Baseline (24h): μ=%.2f, σ=%.2f", *c.Mean, *c.Std))
	}
	if c.Value != nil && c.Warn != nil && c.Alarm != nil {
		advice = append(advice, fmt.Sprintf("Latest: **%.2f%s**  •  Warn: %g  •  Alarm: %g", *c.Value, c.Units, *c.Warn, *c.Alarm))
	}
	if c.ProjectionMinutes != nil {
		advice = append(advice, fmt.Sprintf("Projected threshold crossing in ~%d min (estimate).", *c.ProjectionMinutes))
	}

	switch status {
	case "ALARM":
		advice = append(advice, "**Do now:** Close shutters, isolate source, stop work, evacuate to muster, notify ERT.")
	case "WARN":
		advice = append(advice, "**Mitigate:** Increase extraction, check for leaks/consumption, prepare shutdown if trend continues.")
	default:
		advice = append(advice, "Normal conditions. Maintain ventilation and routine checks.")
	}

	if c.Simulate {
		advice = append(advice, "_(Simulation mode active.)_")
	}

	if p := strings.TrimSpace(prompt); p != "" {
		advice = append(advice, fmt.Sprintf("**Reply:** %s → prioritize isolation, ventilation control, and continuous monitoring.", p))
	}

	return strings.Join(advice, "\n\n")
}
