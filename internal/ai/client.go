// Package ai is the boundary to the remote model service that runs the
// interview, the competency mapping and the question generation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtp-id/talenta/pkg/models"
)

// Message roles used when replaying a transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider names accepted by New.
const (
	ProviderProxy  = "proxy"
	ProviderOpenAI = "openai"
)

var (
	// ErrServiceInterrupted means the connection failed or dropped before a full reply arrived.
	ErrServiceInterrupted = errors.New("ai service interrupted")
	// ErrMalformedResponse means the service answered 2xx with an unexpected payload.
	ErrMalformedResponse = errors.New("ai service returned malformed response")
)

// UpstreamError carries a non-2xx status and message from the AI service verbatim.
type UpstreamError struct {
	Message    string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai service returned status %d: %s", e.StatusCode, e.Message)
}

// Message is one role-tagged turn of conversational history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to the remote model service. Implementations never retry.
type Client interface {
	Interview(ctx context.Context, prompt string, history []Message) (string, error)
	Mapping(ctx context.Context, prompt string) (map[string]models.CompetencyLevel, error)
	Questions(ctx context.Context, area string, level int) (*models.QuestionSet, error)
}

// Config configures a Client.
type Config struct {
	Provider      string
	BaseURL       string
	InterviewPath string
	MappingPath   string
	QuestionsPath string
	Model         string
	APIKey        string
	Timeout       time.Duration
}

// New builds the client for cfg.Provider.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", ProviderProxy:
		return NewProxyClient(cfg), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

// Classify names the error class used for logging and metrics.
func Classify(err error) string {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrServiceInterrupted):
		return "interrupted"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "other"
	}
}
