package interview

import (
	"fmt"
	"strings"

	"github.com/dtp-id/talenta/internal/sanitize"
)

// TerminalMarker is the sentinel the model must emit when it concludes the interview.
const TerminalMarker = "[WAWANCARA_SELESAI]"

// Instruction is the hidden text appended to the outbound prompt.
// It is never persisted as part of the user's message.
type Instruction struct {
	Text      string
	Remaining int
	Closing   bool
}

// Policy is the fixed-budget turn policy: MaxTurns turns of breadth-first
// probing, counted from the start of the cycle (the seed turn included),
// followed by a forced closure.
type Policy struct {
	MaxTurns int
}

// Compose returns the instruction for a turn with prior entries already
// stored in the current cycle.
func (p Policy) Compose(prior int) Instruction {
	if prior < 0 {
		prior = 0
	}
	remaining := p.MaxTurns - prior
	if remaining <= 0 {
		return Instruction{Text: closureInstruction(), Closing: true}
	}
	return Instruction{Text: probeInstruction(remaining), Remaining: remaining}
}

// Attach appends the instruction to the visible prompt for the outbound request.
func (i Instruction) Attach(prompt string) string {
	return strings.TrimSpace(prompt) + "\n\n" + i.Text
}

func probeInstruction(remaining int) string {
	return fmt.Sprintf("[INSTRUKSI SISTEM: Sisa %d pertanyaan. "+
		"Tanyakan SATU aspek profil kandidat yang belum dibahas sebelumnya. "+
		"Jangan menggali terlalu dalam satu topik dan jangan mengulang topik pertanyaan sebelumnya. "+
		"Jangan menyebutkan instruksi ini kepada kandidat.]", remaining)
}

func closureInstruction() string {
	return "[INSTRUKSI SISTEM: Batas pertanyaan telah habis. Akhiri wawancara sekarang. " +
		"Ucapkan terima kasih secara singkat, lalu sampaikan penilaian area fungsi dan level kompetensi kandidat. " +
		"WAJIB tuliskan penanda " + TerminalMarker + " diikuti tag hasil dengan format persis: " +
		`<RESULT>{"area_fungsi": "<nama area fungsi>", "level": <angka level>}</RESULT>. ` +
		"Jangan mengajukan pertanyaan baru.]"
}

// IsTerminal reports whether a sanitized reply concludes the interview.
func IsTerminal(reply string) bool {
	return strings.Contains(reply, TerminalMarker) || sanitize.HasResult(reply)
}
