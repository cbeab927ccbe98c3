package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jbkun069/AnimeChatCraft/pkg/tools"
)

// ClientConfig points at any OpenAI-compatible completions endpoint (vLLM, llama.cpp, OpenAI).
type ClientConfig struct {
	URL         string `yaml:"url" env:"OPENAI_URL"`
	AccessToken string `yaml:"access_token" env:"OPENAI_API_KEY"`

	Model       string   `yaml:"model" env:"OPENAI_MODEL"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature float64  `yaml:"temperature"`
	Stop        []string `yaml:"stop"`
}

var _ Provider = &Client{}

type Client struct {
	httpClient HTTPClient
	cfg        *ClientConfig
}

func NewClient(httpClient HTTPClient, cfg *ClientConfig) *Client {
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

type completionReq struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

type completionChoice struct {
	Text    string `json:"text"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type completionResp struct {
	Choices []completionChoice `json:"choices"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	variants, err := c.reqCompletion(ctx, &completionReq{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Stop:        c.cfg.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("failed to do completion request: %w", err)
	}

	if len(variants) == 0 {
		metrics.LLMErrors.WithLabelValues(ProviderOpenAI, "no_choices").Inc()
		return "", fmt.Errorf("no choices returned from completion endpoint")
	}

	longest := ""
	for _, v := range variants {
		if len(v) > len(longest) {
			longest = v
		}
	}

	return longest, nil
}

func (c *Client) reqCompletion(ctx context.Context, req *completionReq) ([]string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request struct: %w", err)
	}

	url := strings.TrimRight(c.cfg.URL, "/") + "/v1/completions"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion http request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	if c.cfg.AccessToken != "" {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.AccessToken))
	}

	start := time.Now()

	response, err := c.httpClient.Do(request)
	if err != nil {
		metrics.LLMErrors.WithLabelValues(ProviderOpenAI, "transport").Inc()
		return nil, fmt.Errorf("failed to do completion http request: %w", err)
	}
	defer tools.DrainAndClose(response.Body)

	responseData, err := io.ReadAll(response.Body)
	if err != nil {
		metrics.LLMErrors.WithLabelValues(ProviderOpenAI, "500").Inc()
		return nil, fmt.Errorf("failed to read completion http response body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		metrics.LLMErrors.WithLabelValues(ProviderOpenAI, strconv.Itoa(response.StatusCode)).Inc()
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", response.StatusCode, string(responseData))
	}

	var resp completionResp
	if err := json.Unmarshal(responseData, &resp); err != nil {
		metrics.LLMErrors.WithLabelValues(ProviderOpenAI, "500").Inc()
		return nil, fmt.Errorf("failed to unmarshal completion http response body: %w", err)
	}

	metrics.LLMQueryTime.WithLabelValues(ProviderOpenAI).Observe(time.Since(start).Seconds())

	out := make([]string, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		if ch.Text != "" {
			out = append(out, ch.Text)
			continue
		}
		out = append(out, ch.Message.Content)
	}

	return out, nil
}
