package augment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"forecast-systemv1/internal/model"
)

// HTTPConfig configures the remote model client.
type HTTPConfig struct {
	BaseURL     string // e.g. "http://127.0.0.1:1234"
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// HTTPAugmenter calls an OpenAI-compatible chat completion endpoint
// (LM Studio and similar local servers) to generate enhanced
// commentary. All failures — transport, timeout, malformed response —
// surface as errors so the engine falls back deterministically.
type HTTPAugmenter struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTP creates an HTTP augmenter for the given endpoint.
func NewHTTP(cfg HTTPConfig) *HTTPAugmenter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPAugmenter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Available probes the model list endpoint to check reachability.
func (a *HTTPAugmenter) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(a.cfg.BaseURL, "/")+"/v1/models", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *HTTPAugmenter) Enhance(ctx context.Context, f Facts) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: "local-model",
		Messages: []chatMessage{
			{Role: "system", Content: "You are a professional cryptocurrency market analyst."},
			{Role: "user", Content: buildPrompt(f)},
		},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("augment: marshal request: %w", err)
	}

	url := strings.TrimRight(a.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("augment: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("augment: call model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("augment: model returned status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("augment: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("augment: empty response")
	}
	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("augment: empty content")
	}
	return content, nil
}

// buildPrompt formats the structured facts for the model. The prompt
// only carries values already committed by the deterministic pipeline.
func buildPrompt(f Facts) string {
	changePct := 0.0
	if f.CurrentPrice != 0 {
		changePct = (f.PredictedPrice - f.CurrentPrice) / f.CurrentPrice * 100
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Current Market Analysis:\n")
	fmt.Fprintf(&sb, "- Timeframe: %s\n", f.Timeframe.Tag)
	fmt.Fprintf(&sb, "- Current Price: $%.8f\n", f.CurrentPrice)
	fmt.Fprintf(&sb, "- Predicted Price: $%.8f (%+.2f%%)\n", f.PredictedPrice, changePct)
	fmt.Fprintf(&sb, "- Trend Direction: %s\n\n", strings.ToUpper(string(f.Verdict.Direction)))

	sb.WriteString("Technical Indicators:\n")
	sb.WriteString(formatIndicators(f.Set))

	fmt.Fprintf(&sb, "\nBasic Technical Analysis:\n%s\n\n", f.BasicReasoning)
	fmt.Fprintf(&sb, "Provide a concise professional interpretation of the %s trend for the %s timeframe. "+
		"Discuss risks and opportunities. Do not provide financial advice, only market analysis.\n",
		f.Verdict.Direction, f.Timeframe.Tag)
	return sb.String()
}

func formatIndicators(set *model.IndicatorSet) string {
	var lines []string
	if set.RSI != nil {
		lines = append(lines, fmt.Sprintf("- RSI: %.2f (%s)", set.RSI.Value, set.RSI.Zone))
	}
	for _, p := range []int{20, 50, 200} {
		if v, ok := set.SMA[p]; ok {
			lines = append(lines, fmt.Sprintf("- SMA %d: $%.8f", p, v))
		}
	}
	for _, p := range []int{12, 26} {
		if v, ok := set.EMA[p]; ok {
			lines = append(lines, fmt.Sprintf("- EMA %d: $%.8f", p, v))
		}
	}
	if set.MACD != nil {
		lines = append(lines, fmt.Sprintf("- MACD: %.8f (Signal: %.8f, %s)", set.MACD.Line, set.MACD.Signal, set.MACD.Momentum))
	}
	if set.Bollinger != nil {
		lines = append(lines, fmt.Sprintf("- Bollinger Bands: Upper $%.8f, Middle $%.8f, Lower $%.8f",
			set.Bollinger.Upper, set.Bollinger.Middle, set.Bollinger.Lower))
	}
	if set.Volume != nil {
		lines = append(lines, fmt.Sprintf("- Volume: %s (Ratio: %.2fx)", strings.ToUpper(set.Volume.Level), set.Volume.Ratio))
	}
	if len(lines) == 0 {
		return "No indicators available\n"
	}
	return strings.Join(lines, "\n") + "\n"
}
