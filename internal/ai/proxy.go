package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dtp-id/talenta/pkg/models"
)

// ProxyClient calls the AI microservice over HTTP.
// Every endpoint answers {success, message, data}.
type ProxyClient struct {
	httpClient    *http.Client
	baseURL       string
	interviewPath string
	mappingPath   string
	questionsPath string
}

type envelope struct {
	Message string          `json:"message"`
	Detail  any             `json:"detail,omitempty"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

type interviewRequest struct {
	Prompt  string    `json:"prompt"`
	History []Message `json:"history"`
}

type interviewData struct {
	Answer *string `json:"answer"`
}

type mappingRequest struct {
	Prompt string `json:"prompt"`
}

type questionsRequest struct {
	AreaFungsi      string `json:"area_fungsi"`
	LevelKompetensi int    `json:"level_kompetensi"`
}

// NewProxyClient creates a ProxyClient. The timeout should be generous:
// a single interview turn can take minutes.
func NewProxyClient(cfg Config) *ProxyClient {
	return &ProxyClient{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		interviewPath: cfg.InterviewPath,
		mappingPath:   cfg.MappingPath,
		questionsPath: cfg.QuestionsPath,
	}
}

// Interview sends one prompt with the replayed history and returns the raw answer.
func (c *ProxyClient) Interview(ctx context.Context, prompt string, history []Message) (string, error) {
	if history == nil {
		history = []Message{}
	}
	var data interviewData
	if err := c.post(ctx, c.interviewPath, interviewRequest{Prompt: prompt, History: history}, &data); err != nil {
		return "", err
	}
	if data.Answer == nil {
		return "", fmt.Errorf("%w: missing data.answer", ErrMalformedResponse)
	}
	return *data.Answer, nil
}

// Mapping asks for a competency level per functional area.
func (c *ProxyClient) Mapping(ctx context.Context, prompt string) (map[string]models.CompetencyLevel, error) {
	var data map[string]models.CompetencyLevel
	if err := c.post(ctx, c.mappingPath, mappingRequest{Prompt: prompt}, &data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: empty mapping", ErrMalformedResponse)
	}
	return data, nil
}

// Questions generates a multiple-choice set for area at level.
func (c *ProxyClient) Questions(ctx context.Context, area string, level int) (*models.QuestionSet, error) {
	var data models.QuestionSet
	req := questionsRequest{AreaFungsi: area, LevelKompetensi: level}
	if err := c.post(ctx, c.questionsPath, req, &data); err != nil {
		return nil, err
	}
	if len(data.KumpulanSoal) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrMalformedResponse)
	}
	return &data, nil
}

func (c *ProxyClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceInterrupted, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrServiceInterrupted, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw, resp.Status)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "success=false"
		}
		return fmt.Errorf("%w: %s", ErrMalformedResponse, msg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrMalformedResponse, err)
	}
	return nil
}

// upstreamMessage extracts a readable message from an error body,
// preferring the service's own message or detail field.
func upstreamMessage(raw []byte, fallback string) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if s, ok := env.Detail.(string); ok && s != "" {
			return s
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fallback
}

// IsInterrupted reports whether err is a dropped or refused connection.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrServiceInterrupted)
}
