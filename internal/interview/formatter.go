// Package interview runs the AI competency interview: it renders the
// candidate profile into a seed prompt, steers each turn toward breadth
// and then closure, and keeps the transcript consistent.
package interview

import (
	"fmt"
	"strings"
	"time"

	"github.com/dtp-id/talenta/pkg/models"
)

// SeedPreamble opens every seed prompt. History reads use it to recognize
// seed rows written before the is_seed column existed.
const SeedPreamble = "Halo, saya ingin memulai sesi wawancara kompetensi. Berikut data profil saya:"

// ZeroDuration is rendered when an experience has no start date.
const ZeroDuration = "0 tahun 0 bulan 0 hari"

// Placeholders for absent profile data.
const (
	noEducation     = "Belum ada data pendidikan"
	noFinalProject  = "Tidak ada tugas akhir"
	noTraining      = "Tidak ada data pelatihan"
	noCertification = "Tidak ada sertifikasi"
	noPosition      = "Belum memiliki pengalaman kerja"
	noValue         = "-"
)

// FormatProfile renders the profile as prompt text. The most recent
// education and experience are the first elements of their lists.
// now is the reference date for an experience without an end date.
func FormatProfile(p *models.Profile, now time.Time) string {
	var b strings.Builder

	level, major, finalProject := noEducation, noValue, noFinalProject
	if len(p.Educations) > 0 {
		edu := p.Educations[0]
		level = string(edu.Level)
		major = orDefault(edu.Major, noValue)
		finalProject = orDefault(edu.FinalProjectTitle, noFinalProject)
	}

	trainingField, trainingName, certNames := noTraining, noTraining, noCertification
	if len(p.Certifications) > 0 {
		fields := make([]string, 0, len(p.Certifications))
		names := make([]string, 0, len(p.Certifications))
		for _, c := range p.Certifications {
			if f := strings.TrimSpace(c.BidangKeahlian); f != "" {
				fields = append(fields, f)
			}
			if n := strings.TrimSpace(c.Name); n != "" {
				names = append(names, n)
			}
		}
		if len(fields) > 0 {
			trainingField = strings.Join(fields, ", ")
		}
		if len(names) > 0 {
			trainingName = strings.Join(names, ", ")
			certNames = trainingName
		}
	}

	position, jobDesc, duration := noPosition, noValue, ZeroDuration
	if len(p.Experiences) > 0 {
		exp := p.Experiences[0]
		position = nonBlank(exp.Position, noPosition)
		jobDesc = nonBlank(exp.Description, noValue)
		var start *models.Date
		if !exp.StartDate.IsZero() {
			start = &exp.StartDate
		}
		duration = Duration(start, exp.EndDate, now)
	}

	skills := noValue
	if len(p.Skills) > 0 {
		skills = strings.Join(p.Skills, ", ")
	}

	fmt.Fprintf(&b, "- Jenjang Pendidikan: %s\n", level)
	fmt.Fprintf(&b, "- Jurusan: %s\n", major)
	fmt.Fprintf(&b, "- Judul Tugas Akhir: %s\n", finalProject)
	fmt.Fprintf(&b, "- Bidang Pelatihan: %s\n", trainingField)
	fmt.Fprintf(&b, "- Nama Pelatihan: %s\n", trainingName)
	fmt.Fprintf(&b, "- Sertifikasi: %s\n", certNames)
	fmt.Fprintf(&b, "- Posisi Pekerjaan Terakhir: %s\n", position)
	fmt.Fprintf(&b, "- Deskripsi Pekerjaan: %s\n", jobDesc)
	fmt.Fprintf(&b, "- Lama Bekerja: %s\n", duration)
	fmt.Fprintf(&b, "- Keterampilan: %s", skills)
	return b.String()
}

// SeedPrompt is the synthetic first user message of a session.
func SeedPrompt(p *models.Profile, now time.Time) string {
	return SeedPreamble + "\n" + FormatProfile(p, now)
}

// IsSeedPrompt reports whether prompt was produced by SeedPrompt.
func IsSeedPrompt(prompt string) bool {
	return strings.HasPrefix(strings.TrimSpace(prompt), SeedPreamble)
}

// Duration renders elapsed time as "X tahun Y bulan Z hari" using
// 365-day years and 30-day months. end defaults to now; a nil start
// yields ZeroDuration. An end before start counts as zero days.
func Duration(start, end *models.Date, now time.Time) string {
	if start == nil || start.IsZero() {
		return ZeroDuration
	}
	stop := models.NewDate(now)
	if end != nil && !end.IsZero() {
		stop = *end
	}

	days := int(stop.Sub(start.Time).Hours() / 24)
	if days < 0 {
		days = 0
	}
	years := days / 365
	months := (days % 365) / 30
	rest := (days % 365) % 30
	return fmt.Sprintf("%d tahun %d bulan %d hari", years, months, rest)
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return nonBlank(*s, def)
}

func nonBlank(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
