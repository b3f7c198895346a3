package models

import (
	"net/mail"
	"time"
)

// Gender values accepted at registration.
type Gender string

const (
	GenderMale   Gender = "Laki-laki"
	GenderFemale Gender = "Perempuan"
)

// Genders lists the accepted gender values in display order.
var Genders = []Gender{GenderMale, GenderFemale}

// Valid reports whether g is one of the accepted values.
func (g Gender) Valid() bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}

// User is an account that owns one profile and one interview session.
type User struct {
	CreatedAt      time.Time `json:"created_at"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	ID             int64     `json:"id"`
}

// Registration carries the fields submitted by a new candidate.
type Registration struct {
	BirthDate Date   `json:"birth_date"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	NIK       string `json:"nik"`
	FullName  string `json:"full_name"`
	Gender    Gender `json:"gender"`
}

// Validate checks required fields and enum values.
func (r *Registration) Validate() error {
	var errs ValidationErrors
	if r.Username == "" {
		errs = append(errs, NewValidationError("username", "Tolong input Username (wajib diisi)"))
	}
	if r.Email == "" || !looksLikeEmail(r.Email) {
		errs = append(errs, NewValidationError("email", "Format Email tidak valid"))
	}
	if r.Password == "" {
		errs = append(errs, NewValidationError("password", "Tolong input Password (wajib diisi)"))
	}
	if r.NIK == "" {
		errs = append(errs, NewValidationError("nik", "Tolong input NIK (wajib diisi)"))
	}
	if r.FullName == "" {
		errs = append(errs, NewValidationError("full_name", "Tolong input Nama Lengkap (wajib diisi)"))
	}
	if !r.Gender.Valid() {
		errs = append(errs, NewValidationError("gender", "Format Jenis Kelamin tidak valid"))
	}
	if r.BirthDate.IsZero() {
		errs = append(errs, NewValidationError("birth_date", "Tolong input Tanggal Lahir (wajib diisi)"))
	}
	return errs.OrNil()
}

func looksLikeEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Token is the bearer token issued at login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
