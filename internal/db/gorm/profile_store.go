package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dtp-id/talenta/pkg/models"
)

// MaxHistoryItems is the per-profile limit for educations, certifications and experiences.
const MaxHistoryItems = 3

// ErrLimitReached is returned when a history list is already full.
var ErrLimitReached = errors.New("history limit reached")

// ProfileStore provides profile and history list operations.
type ProfileStore struct {
	db *gorm.DB
}

// NewProfileStore creates a new profile store.
func NewProfileStore(store *Store) *ProfileStore {
	return &ProfileStore{db: store.DB}
}

// ProfileByUserID loads the profile with its lists, most recent first.
func (s *ProfileStore) ProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	db := s.db.WithContext(ctx)

	var p Profile
	if err := db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}

	var user User
	if err := db.Select("email").First(&user, userID).Error; err != nil {
		return nil, notFound(err)
	}

	var educations []Education
	if err := db.Where("profile_id = ?", p.ID).Order("id DESC").Find(&educations).Error; err != nil {
		return nil, err
	}
	var certs []Certification
	if err := db.Where("profile_id = ?", p.ID).Order("year DESC, id DESC").Find(&certs).Error; err != nil {
		return nil, err
	}
	var exps []Experience
	if err := db.Where("profile_id = ?", p.ID).Order("start_date DESC, id DESC").Find(&exps).Error; err != nil {
		return nil, err
	}

	out := toModelProfile(&p)
	out.Email = user.Email
	for i := range educations {
		out.Educations = append(out.Educations, toModelEducation(&educations[i]))
	}
	for i := range certs {
		out.Certifications = append(out.Certifications, toModelCertification(&certs[i]))
	}
	for i := range exps {
		out.Experiences = append(out.Experiences, toModelExperience(&exps[i]))
	}
	return out, nil
}

// UpdateProfile applies the non-nil fields of u.
func (s *ProfileStore) UpdateProfile(ctx context.Context, userID int64, u *models.ProfileUpdate) error {
	updates := map[string]any{"updated_at": time.Now()}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = *v
		}
	}
	set("phone", u.Phone)
	set("linkedin_url", u.LinkedinURL)
	set("portfolio_url", u.PortfolioURL)
	set("instagram_username", u.InstagramUsername)
	set("address", u.Address)
	set("bio", u.Bio)
	set("avatar_url", u.AvatarURL)
	if u.Skills != nil {
		updates["skills"] = jsonStrings(*u.Skills)
	}

	res := s.db.WithContext(ctx).Model(&Profile{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetAvatar stores url and returns the previous avatar URL.
func (s *ProfileStore) SetAvatar(ctx context.Context, userID int64, url string) (string, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Profile
		if err := tx.Select("id", "avatar_url").Where("user_id = ?", userID).First(&p).Error; err != nil {
			return notFound(err)
		}
		previous = p.AvatarURL
		return tx.Model(&Profile{}).Where("id = ?", p.ID).
			Updates(map[string]any{"avatar_url": url, "updated_at": time.Now()}).Error
	})
	return previous, err
}

// AddEducation inserts e, enforcing MaxHistoryItems.
func (s *ProfileStore) AddEducation(ctx context.Context, userID int64, e *models.Education) error {
	row := &Education{
		Level:             string(e.Level),
		InstitutionName:   e.InstitutionName,
		Faculty:           e.Faculty,
		Major:             e.Major,
		GPA:               e.GPA,
		FinalProjectTitle: e.FinalProjectTitle,
		EnrollmentYear:    e.EnrollmentYear,
		GraduationYear:    e.GraduationYear,
		IsCurrent:         e.IsCurrent,
		CreatedAt:         time.Now(),
	}
	if err := s.addLimited(ctx, userID, &Education{}, func(tx *gorm.DB, profileID int64) error {
		row.ProfileID = profileID
		return tx.Create(row).Error
	}); err != nil {
		return err
	}
	e.ID = row.ID
	return nil
}

// AddCertification inserts c, enforcing MaxHistoryItems.
func (s *ProfileStore) AddCertification(ctx context.Context, userID int64, c *models.Certification) error {
	row := &Certification{
		Name:           c.Name,
		Organizer:      c.Organizer,
		Year:           c.Year,
		Description:    c.Description,
		BidangKeahlian: c.BidangKeahlian,
		ProofURL:       c.ProofURL,
		CreatedAt:      time.Now(),
	}
	if err := s.addLimited(ctx, userID, &Certification{}, func(tx *gorm.DB, profileID int64) error {
		row.ProfileID = profileID
		return tx.Create(row).Error
	}); err != nil {
		return err
	}
	c.ID = row.ID
	return nil
}

// AddExperience inserts x, enforcing MaxHistoryItems.
func (s *ProfileStore) AddExperience(ctx context.Context, userID int64, x *models.Experience) error {
	row := &Experience{
		JobType:        string(x.JobType),
		Position:       x.Position,
		CompanyName:    x.CompanyName,
		FunctionalArea: x.FunctionalArea,
		Description:    x.Description,
		StartDate:      x.StartDate.Time,
		EndDate:        timePtr(x.EndDate),
		IsCurrent:      x.IsCurrent,
		CreatedAt:      time.Now(),
	}
	if err := s.addLimited(ctx, userID, &Experience{}, func(tx *gorm.DB, profileID int64) error {
		row.ProfileID = profileID
		return tx.Create(row).Error
	}); err != nil {
		return err
	}
	x.ID = row.ID
	return nil
}

func (s *ProfileStore) addLimited(ctx context.Context, userID int64, model any, insert func(tx *gorm.DB, profileID int64) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profileID, err := profileIDFor(tx, userID)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(model).Where("profile_id = ?", profileID).Count(&count).Error; err != nil {
			return err
		}
		if count >= MaxHistoryItems {
			return ErrLimitReached
		}
		return insert(tx, profileID)
	})
}

// DeleteEducation removes one of the user's educations.
func (s *ProfileStore) DeleteEducation(ctx context.Context, userID, id int64) error {
	return s.deleteOwned(ctx, userID, id, &Education{})
}

// DeleteExperience removes one of the user's experiences.
func (s *ProfileStore) DeleteExperience(ctx context.Context, userID, id int64) error {
	return s.deleteOwned(ctx, userID, id, &Experience{})
}

// DeleteCertification removes one of the user's certifications and returns
// its proof URL so the caller can remove the stored object.
func (s *ProfileStore) DeleteCertification(ctx context.Context, userID, id int64) (string, error) {
	var proofURL string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profileID, err := profileIDFor(tx, userID)
		if err != nil {
			return err
		}
		var c Certification
		if err := tx.Where("id = ? AND profile_id = ?", id, profileID).First(&c).Error; err != nil {
			return notFound(err)
		}
		proofURL = c.ProofURL
		return tx.Delete(&c).Error
	})
	return proofURL, err
}

func (s *ProfileStore) deleteOwned(ctx context.Context, userID, id int64, model any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profileID, err := profileIDFor(tx, userID)
		if err != nil {
			return err
		}
		res := tx.Where("id = ? AND profile_id = ?", id, profileID).Delete(model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func profileIDFor(tx *gorm.DB, userID int64) (int64, error) {
	var p Profile
	if err := tx.Select("id").Where("user_id = ?", userID).First(&p).Error; err != nil {
		return 0, notFound(err)
	}
	return p.ID, nil
}

func toModelProfile(p *Profile) *models.Profile {
	return &models.Profile{
		ID:                p.ID,
		UserID:            p.UserID,
		NIK:               p.NIK,
		FullName:          p.FullName,
		Gender:            models.Gender(p.Gender),
		BirthDate:         datePtr(p.BirthDate),
		Phone:             p.Phone,
		Address:           p.Address,
		Bio:               p.Bio,
		LinkedinURL:       p.LinkedinURL,
		PortfolioURL:      p.PortfolioURL,
		InstagramUsername: p.InstagramUsername,
		AvatarURL:         p.AvatarURL,
		Skills:            stringsFromJSON(p.Skills),
		Educations:        []models.Education{},
		Certifications:    []models.Certification{},
		Experiences:       []models.Experience{},
		CreatedAt:         p.CreatedAt,
	}
}

func toModelEducation(e *Education) models.Education {
	return models.Education{
		ID:                e.ID,
		Level:             models.EducationLevel(e.Level),
		InstitutionName:   e.InstitutionName,
		Faculty:           e.Faculty,
		Major:             e.Major,
		GPA:               e.GPA,
		FinalProjectTitle: e.FinalProjectTitle,
		EnrollmentYear:    e.EnrollmentYear,
		GraduationYear:    e.GraduationYear,
		IsCurrent:         e.IsCurrent,
	}
}

func toModelCertification(c *Certification) models.Certification {
	return models.Certification{
		ID:             c.ID,
		Name:           c.Name,
		Organizer:      c.Organizer,
		Year:           c.Year,
		Description:    c.Description,
		BidangKeahlian: c.BidangKeahlian,
		ProofURL:       c.ProofURL,
	}
}

func toModelExperience(x *Experience) models.Experience {
	return models.Experience{
		ID:             x.ID,
		JobType:        models.JobType(x.JobType),
		Position:       x.Position,
		CompanyName:    x.CompanyName,
		FunctionalArea: x.FunctionalArea,
		Description:    x.Description,
		StartDate:      models.NewDate(x.StartDate),
		EndDate:        datePtr(x.EndDate),
		IsCurrent:      x.IsCurrent,
	}
}
