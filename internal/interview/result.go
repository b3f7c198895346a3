package interview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dtp-id/talenta/internal/sanitize"
	"github.com/dtp-id/talenta/pkg/models"
)

// ErrNoResult is returned by ExtractResult when the text carries no result tag.
var ErrNoResult = errors.New("no result tag")

type rawResult struct {
	Status     *string `json:"status"`
	Level      any     `json:"level"`
	AreaFungsi string  `json:"area_fungsi"`
}

// ParseResult decodes a result tag payload. Models sometimes emit the JSON
// with escaped quotes or the level as a string; both are accepted.
func ParseResult(payload string) (models.InterviewResult, error) {
	payload = strings.TrimSpace(payload)
	var raw rawResult
	err := json.Unmarshal([]byte(payload), &raw)
	if err != nil && strings.Contains(payload, `\"`) {
		err = json.Unmarshal([]byte(strings.ReplaceAll(payload, `\"`, `"`)), &raw)
	}
	if err != nil {
		return models.InterviewResult{}, fmt.Errorf("decode result: %w", err)
	}

	area := strings.TrimSpace(raw.AreaFungsi)
	if area == "" {
		return models.InterviewResult{}, errors.New("decode result: area_fungsi is empty")
	}
	level, err := parseLevel(raw.Level)
	if err != nil {
		return models.InterviewResult{}, err
	}
	return models.InterviewResult{AreaFungsi: area, Level: level, Status: raw.Status}, nil
}

func parseLevel(v any) (int, error) {
	switch l := v.(type) {
	case float64:
		return int(l), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(l))
		if err != nil {
			return 0, fmt.Errorf("decode result: level %q: %w", l, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("decode result: level has type %T", v)
	}
}

// ExtractResult parses the last result tag in text.
func ExtractResult(text string) (*models.InterviewResult, error) {
	payload, ok := sanitize.ResultPayload(text)
	if !ok {
		return nil, ErrNoResult
	}
	r, err := ParseResult(payload)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RenderResult serializes r as a complete result tag.
func RenderResult(r models.InterviewResult) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return sanitize.ResultOpen + string(b) + sanitize.ResultClose, nil
}

// PatchStatus sets the status key of a result payload and re-serializes it.
// Every other key of the payload is kept as emitted.
func PatchStatus(payload, status string) (string, error) {
	payload = strings.TrimSpace(payload)
	var fields map[string]json.RawMessage
	err := json.Unmarshal([]byte(payload), &fields)
	if err != nil && strings.Contains(payload, `\"`) {
		err = json.Unmarshal([]byte(strings.ReplaceAll(payload, `\"`, `"`)), &fields)
	}
	if err != nil {
		return "", fmt.Errorf("decode result: %w", err)
	}
	if fields == nil {
		return "", errors.New("decode result: payload is not an object")
	}

	encoded, err := json.Marshal(status)
	if err != nil {
		return "", err
	}
	fields["status"] = encoded
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WithDisplayStatus returns a copy of e whose result tag carries status.
// The stored entry is not modified. Entries without a result tag, or whose
// tag cannot be parsed, come back unpatched.
func WithDisplayStatus(e *models.TranscriptEntry, status models.AssessmentStatus) *models.TranscriptEntry {
	c := e.Clone()
	payload, ok := sanitize.ResultPayload(c.AIResponse)
	if !ok {
		return c
	}

	result := c.Result
	if result == nil {
		parsed, err := ParseResult(payload)
		if err != nil {
			log.Warn().Err(err).Int64("entry_id", e.ID).Msg("Result tag not patched")
			return c
		}
		result = &parsed
	}

	display := status.Display()
	patched := result.WithStatus(display)
	var block string
	if body, err := PatchStatus(payload, display); err == nil {
		block = sanitize.ResultOpen + body + sanitize.ResultClose
	} else {
		block, err = RenderResult(patched)
		if err != nil {
			log.Warn().Err(err).Int64("entry_id", e.ID).Msg("Result tag not patched")
			return c
		}
	}
	c.AIResponse = sanitize.ReplaceResult(c.AIResponse, block)
	c.Result = &patched
	return c
}
