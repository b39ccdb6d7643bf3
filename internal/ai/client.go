package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"taskpilot/internal/task"
)

const systemPrompt = `You extract a task from the user's message. Respond with a single JSON object:
{"title": string, "description": string, "deadline": ISO 8601 string or null, "priority": "low"|"medium"|"high"|"urgent", "category": string, "subtasks": [string]}
Keep the title short and imperative. Omit nothing; use null/empty values when unsure.`

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client calls an OpenAI-compatible chat-completions API to extract task
// fields. The model itself is an external collaborator; this is only the
// wire adapter.
type Client struct {
	cfg   ClientConfig
	httpc *http.Client
	log   zerolog.Logger
}

func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 30 * time.Second},
		log:   log,
	}
}

func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type draftWire struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    *string  `json:"deadline"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Subtasks    []string `json:"subtasks"`
}

func (c *Client) ParseTask(ctx context.Context, input string) (Draft, error) {
	if !c.Configured() {
		return Draft{}, errors.New("ai client not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: input},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return Draft{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Draft{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Draft{}, err
	}
	defer resp.Body.Close()

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Draft{}, fmt.Errorf("chat response decode: %w", err)
	}
	if cr.Error != nil {
		return Draft{}, fmt.Errorf("chat api: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return Draft{}, errors.New("chat api: empty response")
	}

	var w draftWire
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &w); err != nil {
		return Draft{}, fmt.Errorf("draft decode: %w", err)
	}

	d := Draft{
		Title:       w.Title,
		Description: w.Description,
		Priority:    w.Priority,
		Category:    w.Category,
		Subtasks:    w.Subtasks,
	}
	if !task.ValidPriority(d.Priority) {
		d.Priority = task.PriorityMedium
	}
	if d.Category == "" {
		d.Category = "general"
	}
	if w.Deadline != nil {
		if dl, err := task.ParseDeadline(*w.Deadline); err == nil {
			d.Deadline = dl
		} else {
			c.log.Debug().Str("deadline", *w.Deadline).Msg("model returned unparseable deadline")
		}
	}
	return d, nil
}
