// Package seed fills an empty database with an admin account and demo candidates.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dtp-id/talenta/internal/auth"
	"github.com/dtp-id/talenta/internal/catalog"
	gormdb "github.com/dtp-id/talenta/internal/db/gorm"
	"github.com/dtp-id/talenta/pkg/models"
)

const (
	AdminEmail    = "admin@dtp.id"
	AdminPassword = "123"
	adminNIK      = "1234567890123456"

	// DefaultCandidates is how many demo candidates Run creates when asked for zero or fewer.
	DefaultCandidates = 10

	maxAttempts = 5
)

var (
	universities = []string{
		"Universitas Indonesia", "Institut Teknologi Bandung", "Universitas Gadjah Mada",
		"Institut Teknologi Sepuluh Nopember", "Universitas Airlangga", "Universitas Brawijaya",
		"Universitas Padjadjaran", "Universitas Diponegoro", "Binus University",
		"Telkom University", "Universitas Sebelas Maret", "Universitas Hasanuddin",
	}
	majors = []string{
		"Teknik Informatika", "Sistem Informasi", "Ilmu Komputer",
		"Teknik Elektro", "Manajemen Bisnis", "Akuntansi",
		"Desain Komunikasi Visual", "Statistika", "Matematika",
	}
	firstNames = []string{"Budi", "Siti", "Agus", "Dewi", "Rizky", "Putri", "Andi", "Rina", "Fajar", "Wulan", "Hendra", "Maya"}
	lastNames  = []string{"Santoso", "Rahmawati", "Pratama", "Lestari", "Saputra", "Hidayat", "Kusuma", "Wijaya", "Nugroho", "Permata"}
	cities     = []string{"Bandung", "Surabaya", "Medan", "Makassar", "Semarang", "Yogyakarta", "Malang", "Denpasar"}
	companies  = []string{"PT Telkom Indonesia", "PT Bank Mandiri", "PT Gojek Indonesia", "PT Pertamina", "CV Solusi Digital", "PT Bukalapak"}
	positions  = []string{"Backend Engineer", "Data Analyst", "IT Support", "Network Engineer", "Product Manager", "Security Analyst"}
	seedLevels = []models.EducationLevel{
		models.EducationSMA, models.EducationD3, models.EducationD4, models.EducationS1, models.EducationS2,
	}
)

// Result reports what Run created.
type Result struct {
	AdminCreated bool
	Candidates   int
}

// Seeder writes demo data through the regular stores.
type Seeder struct {
	users    *gormdb.UserStore
	profiles *gormdb.ProfileStore
	catalog  *catalog.Catalog
	rnd      *rand.Rand
	now      func() time.Time
}

// New creates a Seeder. The same seed yields the same candidates.
func New(store *gormdb.Store, cat *catalog.Catalog, seed uint64) *Seeder {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Seeder{
		users:    gormdb.NewUserStore(store),
		profiles: gormdb.NewProfileStore(store),
		catalog:  cat,
		rnd:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:      time.Now,
	}
}

// Run creates the admin account if it is missing and then n demo candidates.
func (s *Seeder) Run(ctx context.Context, n int) (Result, error) {
	var res Result
	if n <= 0 {
		n = DefaultCandidates
	}

	created, err := s.ensureAdmin(ctx)
	if err != nil {
		return res, fmt.Errorf("seed admin: %w", err)
	}
	res.AdminCreated = created

	for i := 0; i < n; i++ {
		if err := s.candidate(ctx); err != nil {
			return res, fmt.Errorf("seed candidate %d: %w", i+1, err)
		}
		res.Candidates++
	}

	log.Info().Bool("admin_created", res.AdminCreated).Int("candidates", res.Candidates).Msg("Seeding finished")
	return res, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context) (bool, error) {
	exists, err := s.users.EmailExists(ctx, AdminEmail)
	if err != nil {
		return false, err
	}
	if exists {
		log.Info().Str("email", AdminEmail).Msg("Admin already exists, skipping")
		return false, nil
	}

	hashed, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return false, err
	}
	user, err := s.users.CreateWithProfile(ctx, &models.Registration{
		Username:  "admin",
		Email:     AdminEmail,
		NIK:       adminNIK,
		FullName:  "Super Admin",
		Gender:    models.GenderMale,
		BirthDate: models.MustDate("1995-01-01"),
	}, hashed)
	if err != nil {
		return false, err
	}
	bio := "Akun ini untuk testing admin."
	if err := s.profiles.UpdateProfile(ctx, user.ID, &models.ProfileUpdate{Bio: &bio}); err != nil {
		return false, err
	}
	log.Info().Int64("user_id", user.ID).Msg("Admin account created")
	return true, nil
}

func (s *Seeder) candidate(ctx context.Context) error {
	reg, err := s.uniqueRegistration(ctx)
	if err != nil {
		return err
	}
	hashed, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return err
	}
	user, err := s.users.CreateWithProfile(ctx, reg, hashed)
	if err != nil {
		return err
	}

	phone := fmt.Sprintf("08%010d", s.rnd.Int64N(1e10))
	address := fmt.Sprintf("Jl. %s No. %d, %s", pick(s.rnd, lastNames), 1+s.rnd.IntN(200), pick(s.rnd, cities))
	bio := fmt.Sprintf("Kandidat dari %s yang tertarik pada %s.", pick(s.rnd, cities), strings.ToLower(pick(s.rnd, positions)))
	linkedin := "https://linkedin.com/in/" + reg.Username
	skills := s.pickSkills(3)
	if err := s.profiles.UpdateProfile(ctx, user.ID, &models.ProfileUpdate{
		Phone: &phone, Address: &address, Bio: &bio, LinkedinURL: &linkedin, Skills: &skills,
	}); err != nil {
		return err
	}

	for i := 0; i < 1+s.rnd.IntN(2); i++ {
		edu := s.education()
		if err := edu.Normalize(); err != nil {
			return err
		}
		if err := s.profiles.AddEducation(ctx, user.ID, edu); err != nil {
			return err
		}
	}
	for i := 0; i < s.rnd.IntN(3); i++ {
		if err := s.profiles.AddExperience(ctx, user.ID, s.experience()); err != nil {
			return err
		}
	}
	if s.rnd.IntN(2) == 0 {
		if err := s.profiles.AddCertification(ctx, user.ID, s.certification()); err != nil {
			return err
		}
	}
	return nil
}

// uniqueRegistration draws identities until one is free.
func (s *Seeder) uniqueRegistration(ctx context.Context) (*models.Registration, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		first, last := pick(s.rnd, firstNames), pick(s.rnd, lastNames)
		username := fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), s.rnd.IntN(10000))
		reg := &models.Registration{
			Username:  username,
			Email:     username + "@example.com",
			NIK:       fmt.Sprintf("%016d", s.rnd.Int64N(1e16)),
			FullName:  first + " " + last,
			Gender:    pick(s.rnd, models.Genders),
			BirthDate: models.NewDate(s.now().AddDate(-(20 + s.rnd.IntN(16)), -s.rnd.IntN(12), -s.rnd.IntN(28))),
		}

		taken := false
		for _, check := range []struct {
			exists func(context.Context, string) (bool, error)
			value  string
		}{
			{s.users.EmailExists, reg.Email},
			{s.users.UsernameExists, reg.Username},
			{s.users.NIKExists, reg.NIK},
		} {
			exists, err := check.exists(ctx, check.value)
			if err != nil {
				return nil, err
			}
			taken = taken || exists
		}
		if !taken {
			return reg, nil
		}
	}
	return nil, fmt.Errorf("no free identity after %d attempts", maxAttempts)
}

func (s *Seeder) education() *models.Education {
	level := pick(s.rnd, seedLevels)
	enrolled := 2015 + s.rnd.IntN(5)
	graduated := 2020 + s.rnd.IntN(4)
	edu := &models.Education{
		Level:          level,
		EnrollmentYear: &enrolled,
		GraduationYear: &graduated,
	}
	if level == models.EducationSMA {
		institution := "SMA " + pick(s.rnd, cities)
		major := "IPA/IPS"
		edu.InstitutionName, edu.Major = &institution, &major
		return edu
	}
	institution, major := pick(s.rnd, universities), pick(s.rnd, majors)
	gpa := fmt.Sprintf("%.2f", 3+s.rnd.Float64())
	edu.InstitutionName, edu.Major, edu.GPA = &institution, &major, &gpa
	return edu
}

func (s *Seeder) experience() *models.Experience {
	now := s.now()
	start := now.AddDate(-2-s.rnd.IntN(2), -s.rnd.IntN(12), 0)
	x := &models.Experience{
		JobType:        pick(s.rnd, models.JobTypes),
		Position:       pick(s.rnd, positions),
		CompanyName:    pick(s.rnd, companies),
		FunctionalArea: pick(s.rnd, s.catalog.AreaNames()),
		StartDate:      models.NewDate(start),
		IsCurrent:      s.rnd.IntN(2) == 0,
		Description:    "Mengembangkan dan memelihara layanan internal perusahaan.",
	}
	if !x.IsCurrent {
		end := models.NewDate(now.AddDate(0, 0, -s.rnd.IntN(365)))
		x.EndDate = &end
	}
	return x
}

func (s *Seeder) certification() *models.Certification {
	position := pick(s.rnd, positions)
	return &models.Certification{
		Name:           "Sertifikat " + position,
		Organizer:      pick(s.rnd, companies),
		Year:           s.now().Year() - s.rnd.IntN(5),
		Description:    "Pelatihan kompetensi " + strings.ToLower(position) + ".",
		BidangKeahlian: pick(s.rnd, s.catalog.AreaNames()),
		ProofURL:       fmt.Sprintf("/static/certifications/dummy_%d.pdf", 1+s.rnd.IntN(5)),
	}
}

func (s *Seeder) pickSkills(n int) []string {
	all := s.catalog.Skills()
	s.rnd.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:min(n, len(all))]
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.IntN(len(items))]
}
