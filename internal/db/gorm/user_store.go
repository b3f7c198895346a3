package gorm

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dtp-id/talenta/pkg/models"
)

// UserStore provides account operations.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new user store.
func NewUserStore(store *Store) *UserStore {
	return &UserStore{db: store.DB}
}

// EmailExists reports whether an account uses email.
func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, &User{}, "email = ?", strings.ToLower(email))
}

// UsernameExists reports whether an account uses username.
func (s *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, &User{}, "username = ?", username)
}

// NIKExists reports whether a profile uses nik.
func (s *UserStore) NIKExists(ctx context.Context, nik string) (bool, error) {
	return s.exists(ctx, &Profile{}, "nik = ?", nik)
}

func (s *UserStore) exists(ctx context.Context, model any, query string, arg any) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(model).Where(query, arg).Count(&count).Error
	return count > 0, err
}

// CreateWithProfile inserts the account and its empty profile in one transaction.
func (s *UserStore) CreateWithProfile(ctx context.Context, reg *models.Registration, hashedPassword string) (*models.User, error) {
	now := time.Now()
	user := &User{
		Username:       reg.Username,
		Email:          strings.ToLower(reg.Email),
		HashedPassword: hashedPassword,
		CreatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		birth := reg.BirthDate.Time
		profile := &Profile{
			UserID:    user.ID,
			NIK:       reg.NIK,
			FullName:  reg.FullName,
			Gender:    string(reg.Gender),
			Skills:    jsonStrings(nil),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if !birth.IsZero() {
			profile.BirthDate = &birth
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return toModelUser(user), nil
}

// ByEmail returns the account with email, or models.ErrNotFound.
func (s *UserStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return toModelUser(&u), nil
}

// ByID returns the account with id, or models.ErrNotFound.
func (s *UserStore) ByID(ctx context.Context, id int64) (*models.User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return toModelUser(&u), nil
}

func toModelUser(u *User) *models.User {
	return &models.User{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		CreatedAt:      u.CreatedAt,
	}
}
