package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dtp-id/talenta/internal/metrics"
	"github.com/dtp-id/talenta/pkg/models"
)

type instrumented struct {
	next Client
	rec  *metrics.Recorder
}

// Instrument wraps c so every call records latency and failures.
func Instrument(c Client, rec *metrics.Recorder) Client {
	return &instrumented{next: c, rec: rec}
}

func (i *instrumented) Interview(ctx context.Context, prompt string, history []Message) (string, error) {
	start := time.Now()
	answer, err := i.next.Interview(ctx, prompt, history)
	i.observe(ctx, "interview", start, err)
	return answer, err
}

func (i *instrumented) Mapping(ctx context.Context, prompt string) (map[string]models.CompetencyLevel, error) {
	start := time.Now()
	out, err := i.next.Mapping(ctx, prompt)
	i.observe(ctx, "mapping", start, err)
	return out, err
}

func (i *instrumented) Questions(ctx context.Context, area string, level int) (*models.QuestionSet, error) {
	start := time.Now()
	out, err := i.next.Questions(ctx, area, level)
	i.observe(ctx, "questions", start, err)
	return out, err
}

func (i *instrumented) observe(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	i.rec.AILatency(ctx, op, elapsed)
	if err == nil {
		log.Debug().Str("op", op).Dur("elapsed", elapsed).Msg("AI call completed")
		return
	}
	class := Classify(err)
	i.rec.AIError(ctx, op, class)
	log.Warn().Err(err).Str("op", op).Str("class", class).Dur("elapsed", elapsed).Msg("AI call failed")
}
