package ai

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
)

// CountTokens estimates the cl100k token count of text.
// Returns -1 if the encoder is unavailable.
func CountTokens(text string) int {
	codecOnce.Do(func() {
		enc, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			log.Warn().Err(err).Msg("Token encoder unavailable")
			return
		}
		codec = enc
	})
	if codec == nil {
		return -1
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return -1
	}
	return len(ids)
}

// HistoryTokens sums CountTokens over every message.
func HistoryTokens(history []Message) int {
	total := 0
	for _, m := range history {
		n := CountTokens(m.Content)
		if n < 0 {
			return -1
		}
		total += n
	}
	return total
}
