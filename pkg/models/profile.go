package models

import (
	"fmt"
	"strings"
	"time"
)

// EducationLevel is the highest completed or current education tier.
type EducationLevel string

const (
	EducationSMA     EducationLevel = "SMA/SMK"
	EducationD3      EducationLevel = "D3"
	EducationD4      EducationLevel = "D4"
	EducationS1      EducationLevel = "S1"
	EducationS2      EducationLevel = "S2"
	EducationS3      EducationLevel = "S3"
	EducationLainnya EducationLevel = "Lainnya"
)

// EducationLevels lists accepted levels in display order.
var EducationLevels = []EducationLevel{
	EducationSMA, EducationD3, EducationD4, EducationS1, EducationS2, EducationS3, EducationLainnya,
}

// Valid reports whether l is an accepted level.
func (l EducationLevel) Valid() bool {
	for _, v := range EducationLevels {
		if l == v {
			return true
		}
	}
	return false
}

// JobType classifies an experience entry.
type JobType string

const (
	JobTypeKerja     JobType = "Kerja"
	JobTypeFreelance JobType = "Freelance"
	JobTypeMagang    JobType = "Magang"
	JobTypeNone      JobType = "Tidak/belum bekerja"
)

// JobTypes lists accepted job types in display order.
var JobTypes = []JobType{JobTypeKerja, JobTypeFreelance, JobTypeMagang, JobTypeNone}

// Valid reports whether t is an accepted job type.
func (t JobType) Valid() bool {
	for _, v := range JobTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Profile is the candidate data that seeds the interview.
type Profile struct {
	CreatedAt         time.Time       `json:"created_at"`
	BirthDate         *Date           `json:"birth_date"`
	Email             string          `json:"email,omitempty"`
	NIK               string          `json:"nik"`
	FullName          string          `json:"full_name"`
	Gender            Gender          `json:"gender"`
	Phone             string          `json:"phone"`
	Address           string          `json:"address"`
	Bio               string          `json:"bio"`
	LinkedinURL       string          `json:"linkedin_url"`
	PortfolioURL      string          `json:"portfolio_url"`
	InstagramUsername string          `json:"instagram_username"`
	AvatarURL         string          `json:"avatar_url"`
	Skills            []string        `json:"skills"`
	Educations        []Education     `json:"educations"`
	Certifications    []Certification `json:"certifications"`
	Experiences       []Experience    `json:"experiences"`
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	Phone             *string   `json:"phone,omitempty"`
	LinkedinURL       *string   `json:"linkedin_url,omitempty"`
	PortfolioURL      *string   `json:"portfolio_url,omitempty"`
	InstagramUsername *string   `json:"instagram_username,omitempty"`
	Address           *string   `json:"address,omitempty"`
	Bio               *string   `json:"bio,omitempty"`
	AvatarURL         *string   `json:"avatar_url,omitempty"`
	Skills            *[]string `json:"skills,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u *ProfileUpdate) Empty() bool {
	return u.Phone == nil && u.LinkedinURL == nil && u.PortfolioURL == nil &&
		u.InstagramUsername == nil && u.Address == nil && u.Bio == nil &&
		u.AvatarURL == nil && u.Skills == nil
}

// Validate checks skills against the known option list (case-insensitive).
func (u *ProfileUpdate) Validate(knownSkill func(string) bool) error {
	if u.Skills == nil || knownSkill == nil {
		return nil
	}
	for _, skill := range *u.Skills {
		if !knownSkill(skill) {
			return NewValidationError("skills",
				fmt.Sprintf("Skill '%s' tidak valid. Pilih dari daftar yang tersedia.", skill))
		}
	}
	return nil
}

// Education is one education history record.
type Education struct {
	Faculty           *string        `json:"faculty"`
	GPA               *string        `json:"gpa"`
	FinalProjectTitle *string        `json:"final_project_title"`
	InstitutionName   *string        `json:"institution_name"`
	Major             *string        `json:"major"`
	EnrollmentYear    *int           `json:"enrollment_year"`
	GraduationYear    *int           `json:"graduation_year"`
	Level             EducationLevel `json:"level"`
	ID                int64          `json:"id"`
	IsCurrent         bool           `json:"is_current"`
}

// Normalize validates e and clears fields that do not apply to its level.
func (e *Education) Normalize() error {
	if !e.Level.Valid() {
		return NewValidationError("level", "Format Jenjang Pendidikan tidak valid")
	}
	if e.Level == EducationLainnya {
		e.InstitutionName = nil
		e.Faculty = nil
		e.Major = nil
		e.EnrollmentYear = nil
		e.GraduationYear = nil
		e.GPA = nil
		e.FinalProjectTitle = nil
		e.IsCurrent = false
		return nil
	}
	if blank(e.InstitutionName) {
		return NewValidationError("institution_name", "Nama Institusi wajib diisi")
	}
	if blank(e.Major) {
		return NewValidationError("major", "Jurusan wajib diisi")
	}
	if e.EnrollmentYear == nil || *e.EnrollmentYear == 0 {
		return NewValidationError("enrollment_year", "Tahun Masuk wajib diisi")
	}
	if e.Level == EducationSMA {
		e.GPA = nil
		e.Faculty = nil
		e.FinalProjectTitle = nil
	}
	if e.IsCurrent && e.GraduationYear != nil {
		return NewValidationError("graduation_year",
			"Jika masih menempuh pendidikan, tahun lulus tidak boleh diisi.")
	}
	return nil
}

// Certification is a training or certification record with an uploaded proof.
type Certification struct {
	Name           string `json:"name"`
	Organizer      string `json:"organizer"`
	ProofURL       string `json:"proof_url"`
	Description    string `json:"description"`
	BidangKeahlian string `json:"bidang_keahlian"`
	ID             int64  `json:"id"`
	Year           int    `json:"year"`
}

// Validate applies the length rules and the year window relative to now.
func (c *Certification) Validate(now time.Time) error {
	if len(strings.TrimSpace(c.Name)) < 3 {
		return NewValidationError("name", "Nama sertifikasi minimal 3 karakter")
	}
	if len(strings.TrimSpace(c.Organizer)) < 3 {
		return NewValidationError("organizer", "Penyelenggara minimal 3 karakter")
	}
	if len(strings.TrimSpace(c.Description)) < 5 {
		return NewValidationError("description", "Deskripsi minimal 5 karakter")
	}
	if strings.TrimSpace(c.BidangKeahlian) == "" {
		return NewValidationError("bidang_keahlian", "Tolong input Bidang Keahlian (wajib diisi)")
	}
	minYear, maxYear := now.Year()-5, now.Year()+5
	if c.Year < minYear || c.Year > maxYear {
		return NewValidationError("year",
			fmt.Sprintf("Tahun sertifikasi harus antara %d dan %d", minYear, maxYear))
	}
	return nil
}

// Experience is one work history record.
type Experience struct {
	StartDate      Date    `json:"start_date"`
	EndDate        *Date   `json:"end_date"`
	JobType        JobType `json:"job_type"`
	Position       string  `json:"position"`
	CompanyName    string  `json:"company_name"`
	FunctionalArea string  `json:"functional_area"`
	Description    string  `json:"description"`
	ID             int64   `json:"id"`
	IsCurrent      bool    `json:"is_current"`
}

// Validate checks enum fields and date consistency.
// knownArea reports whether a functional area is in the catalog.
func (x *Experience) Validate(knownArea func(string) bool) error {
	if !x.JobType.Valid() {
		return NewValidationError("job_type", "Format Jenis Pekerjaan tidak valid")
	}
	if strings.TrimSpace(x.Position) == "" {
		return NewValidationError("position", "Tolong input Posisi (wajib diisi)")
	}
	if strings.TrimSpace(x.CompanyName) == "" {
		return NewValidationError("company_name", "Tolong input Nama Perusahaan (wajib diisi)")
	}
	if knownArea != nil && !knownArea(x.FunctionalArea) {
		return NewValidationError("functional_area", "Format Bidang Pekerjaan tidak valid")
	}
	if x.StartDate.IsZero() {
		return NewValidationError("start_date", "Tolong input Tanggal Mulai (wajib diisi)")
	}
	if x.IsCurrent && x.EndDate != nil {
		return NewValidationError("end_date",
			"Jika masih bekerja (Saat ini), tanggal selesai tidak boleh diisi.")
	}
	if x.EndDate != nil && x.EndDate.Before(x.StartDate.Time) {
		return NewValidationError("end_date",
			"Tanggal selesai tidak boleh lebih awal dari tanggal mulai.")
	}
	return nil
}

// Completeness summarizes how ready a profile is for assessment.
type Completeness struct {
	MissingItems         []string `json:"missing_items"`
	Percentage           int      `json:"percentage"`
	IsReadyForAssessment bool     `json:"is_ready_for_assessment"`
}

// ReadyThreshold is the completeness percentage required before assessment.
const ReadyThreshold = 80

// ComputeCompleteness scores p the same way the profile page does.
func ComputeCompleteness(p *Profile) Completeness {
	c := Completeness{MissingItems: []string{}}
	if p.Phone != "" && p.Address != "" && p.Bio != "" {
		c.Percentage += 25
	} else {
		c.MissingItems = append(c.MissingItems, "Lengkapi No HP, Alamat, dan Bio")
	}
	if p.AvatarURL != "" {
		c.Percentage += 15
	} else {
		c.MissingItems = append(c.MissingItems, "Upload Foto Profil")
	}
	if len(p.Educations) > 0 {
		c.Percentage += 30
	} else {
		c.MissingItems = append(c.MissingItems, "Tambahkan minimal 1 Riwayat Pendidikan")
	}
	if len(p.Experiences) > 0 || len(p.Certifications) > 0 {
		c.Percentage += 30
	} else {
		c.MissingItems = append(c.MissingItems, "Tambahkan minimal 1 Pengalaman Kerja atau Sertifikasi")
	}
	c.IsReadyForAssessment = c.Percentage >= ReadyThreshold
	return c
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
