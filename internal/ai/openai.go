package ai

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai"

	"github.com/dtp-id/talenta/pkg/models"
)

const interviewerSystemPrompt = "Anda adalah pewawancara kompetensi talenta digital. " +
	"Ajukan satu pertanyaan dalam satu waktu, gunakan Bahasa Indonesia yang sopan, " +
	"dan ikuti instruksi tambahan yang menyertai pesan kandidat."

const mappingSystemPrompt = "Anda memetakan profil kandidat ke area fungsi talenta digital. " +
	"Balas hanya dengan objek JSON yang kuncinya nama area fungsi dan nilainya " +
	`{"level_kompetensi": int, "kecocokan": float, "status": "unassessed"}.`

const questionsSystemPrompt = "Anda menyusun soal pilihan ganda untuk asesmen kompetensi. " +
	"Balas hanya dengan objek JSON berbentuk " +
	`{"area_fungsi": string, "level_kompetensi": int, "kumpulan_soal": [{"nomor_soal": int, ` +
	`"aspek_kritis": string, "soal": string, "opsi_jawaban": {"a": string, "b": string, ` +
	`"c": string, "d": string}, "jawaban_benar": "a"|"b"|"c"|"d"}]}.`

// OpenAIClient runs the interview against an OpenAI-compatible chat
// completions endpoint. Config.BaseURL, when set, must point at the /v1 root.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAIClient.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}
}

// Interview replays history as chat messages and sends prompt as the last user turn.
func (c *OpenAIClient) Interview(ctx context.Context, prompt string, history []Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: interviewerSystemPrompt,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	return c.complete(ctx, messages, false)
}

// Mapping asks the model for a JSON map of area to competency level.
func (c *OpenAIClient) Mapping(ctx context.Context, prompt string) (map[string]models.CompetencyLevel, error) {
	content, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: mappingSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, true)
	if err != nil {
		return nil, err
	}
	var out map[string]models.CompetencyLevel
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

// Questions asks the model for a JSON question set.
func (c *OpenAIClient) Questions(ctx context.Context, area string, level int) (*models.QuestionSet, error) {
	prompt := fmt.Sprintf("Buat 10 soal untuk area fungsi %q pada level kompetensi %d.", area, level)
	content, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: questionsSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, true)
	if err != nil {
		return nil, err
	}
	var set models.QuestionSet
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(set.KumpulanSoal) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrMalformedResponse)
	}
	if set.AreaFungsi == "" {
		set.AreaFungsi = area
	}
	if set.LevelKompetensi == 0 {
		set.LevelKompetensi = level
	}
	return &set, nil
}

func (c *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessage, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	rsp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", translateOpenAIError(err)
	}
	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return rsp.Choices[0].Message.Content, nil
}

func translateOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	if isDecodeError(err) {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return fmt.Errorf("%w: %v", ErrServiceInterrupted, err)
}

// isDecodeError reports whether err comes from decoding a 2xx body.
// go-openai decodes with encoding/json; transport failures arrive as *url.Error.
func isDecodeError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return false
	}
	var syntaxErr *stdjson.SyntaxError
	var typeErr *stdjson.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF)
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
