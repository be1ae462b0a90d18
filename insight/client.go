package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maikmano/zentask/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-3-flash-preview"

	insightsTemperature = 0.75
)

const missingKeyInsights = "Erro: Chave de API não configurada no .env.local."

// Client talks to the generative text service. Every call is best-effort:
// failures fall back to a fixed string or the caller's input, never to an
// error. There is deliberately no retry.
type Client struct {
	log     *logrus.Entry
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
}

func NewClient(log *logrus.Entry, apiKey string) *Client {
	return &Client{
		log:     log,
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// DailyInsights builds a coaching summary from the user's active tasks and
// notes. Whatever goes wrong, the caller gets displayable text back.
func (c *Client) DailyInsights(ctx context.Context, tasks []domain.Task, notes []domain.Note) string {
	if c.apiKey == "" {
		return missingKeyInsights
	}
	text, err := c.generate(ctx, dailyInsightsPrompt(tasks, notes), &generationConfig{Temperature: insightsTemperature})
	if err != nil {
		c.log.Errorf("daily insights: %v", err)
		return fmt.Sprintf("Ocorreu um erro ao gerar seus insights: %v", err)
	}
	if text == "" {
		return "Sem resposta da IA."
	}
	return text
}

// RefineTask rewrites a task description into a more professional and
// actionable tone. On any failure, or without an API key, the input comes
// back unchanged.
func (c *Client) RefineTask(ctx context.Context, text string) string {
	if c.apiKey == "" {
		return text
	}
	refined, err := c.generate(ctx, refinePrompt(text), nil)
	if err != nil {
		c.log.Errorf("refine task: %v", err)
		return text
	}
	refined = strings.TrimSpace(refined)
	if refined == "" {
		return text
	}
	return refined
}

func (c *Client) generate(ctx context.Context, prompt string, cfg *generationConfig) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: cfg,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate call: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate call failed with status %d", resp.StatusCode)
	}
	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
