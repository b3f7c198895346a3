package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dtp-id/talenta/pkg/models"
)

type memUsers struct {
	byEmail map[string]*models.User
	niks    map[string]bool
	mu      sync.Mutex
	nextID  int64
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*models.User{}, niks: map[string]bool{}}
}

func (m *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (m *memUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) NIKExists(_ context.Context, nik string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.niks[nik], nil
}

func (m *memUsers) CreateWithProfile(_ context.Context, reg *models.Registration, hashed string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u := &models.User{ID: m.nextID, Username: reg.Username, Email: strings.ToLower(reg.Email), HashedPassword: hashed}
	m.byEmail[u.Email] = u
	m.niks[reg.NIK] = true
	return u, nil
}

func (m *memUsers) ByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func registration() *models.Registration {
	return &models.Registration{
		Username:  "budi",
		Email:     "budi@example.com",
		Password:  "rahasia",
		NIK:       "3201000000000001",
		FullName:  "Budi Santoso",
		Gender:    models.GenderMale,
		BirthDate: models.MustDate("1995-04-12"),
	}
}

type AuthSuite struct {
	suite.Suite
	users   *memUsers
	service *Service
}

func (s *AuthSuite) SetupTest() {
	tokens, err := NewTokens("test-secret", "HS256", time.Hour)
	s.Require().NoError(err)
	s.users = newMemUsers()
	s.service = NewService(s.users, tokens)
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) TestRegisterAndLogin() {
	ctx := context.Background()
	user, err := s.service.Register(ctx, registration())
	s.Require().NoError(err)
	s.NotEqual("rahasia", user.HashedPassword)

	tok, err := s.service.Login(ctx, "budi@example.com", "rahasia")
	s.Require().NoError(err)
	s.Equal("bearer", tok.TokenType)
	s.NotEmpty(tok.AccessToken)

	got, err := s.service.Authenticate(ctx, tok.AccessToken)
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
}

func (s *AuthSuite) TestRegisterDuplicates() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, registration())
	s.Require().NoError(err)

	tests := []struct {
		name    string
		mutate  func(r *models.Registration)
		message string
	}{
		{"email", func(r *models.Registration) { r.Username, r.NIK = "lain", "999" }, "Email sudah terdaftar. Gunakan email lain."},
		{"username", func(r *models.Registration) { r.Email, r.NIK = "lain@example.com", "999" }, "Username sudah dipakai. Silakan pilih username lain."},
		{"nik", func(r *models.Registration) { r.Email, r.Username = "lain@example.com", "lain" }, "NIK sudah terdaftar dalam sistem."},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			reg := registration()
			tt.mutate(reg)
			_, err := s.service.Register(ctx, reg)
			var verr *models.ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Equal(tt.name, verr.Field)
			s.Equal(tt.message, verr.Message)
		})
	}
}

func (s *AuthSuite) TestRegisterValidation() {
	reg := registration()
	reg.Email = "bukan-email"
	_, err := s.service.Register(context.Background(), reg)
	var verrs models.ValidationErrors
	s.Require().ErrorAs(err, &verrs)
}

func (s *AuthSuite) TestLoginWrongCredentials() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, registration())
	s.Require().NoError(err)

	_, err = s.service.Login(ctx, "budi@example.com", "salah")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.service.Login(ctx, "nobody@example.com", "rahasia")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthSuite) TestMiddleware() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, registration())
	s.Require().NoError(err)
	tok, err := s.service.Login(ctx, "budi@example.com", "rahasia")
	s.Require().NoError(err)

	var seen *models.User
	h := s.service.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + tok.AccessToken, http.StatusNoContent},
		{"lowercase scheme", "bearer " + tok.AccessToken, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/profile/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			s.Equal(tt.code, rec.Code)
			if tt.code == http.StatusUnauthorized {
				s.Contains(rec.Body.String(), MsgUnauthorized)
				s.Nil(seen)
			} else {
				s.Require().NotNil(seen)
				s.Equal("budi@example.com", seen.Email)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	tokens, err := NewTokens("secret", "", time.Minute)
	require.NoError(t, err)

	raw, err := tokens.Issue("a@example.com")
	require.NoError(t, err)
	sub, err := tokens.Subject(raw)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", sub)

	t.Run("expired", func(t *testing.T) {
		tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { tokens.now = time.Now }()
		_, err := tokens.Subject(raw)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokens("other", "HS256", time.Minute)
		require.NoError(t, err)
		_, err = other.Subject(raw)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "a@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Subject(unsigned)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestNewTokens_Errors(t *testing.T) {
	_, err := NewTokens("", "HS256", time.Minute)
	assert.Error(t, err)
	_, err = NewTokens("secret", "RS256", time.Minute)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "123"))
	assert.False(t, CheckPassword(hash, "1234"))
}
