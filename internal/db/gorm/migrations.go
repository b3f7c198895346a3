package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// migrations lists every schema change in order. IDs are never reused.
func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		// Migration 001: accounts and profiles
		{
			ID: "001_users_profiles",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&User{}, &Profile{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("profiles", "users")
			},
		},

		// Migration 002: profile history lists
		{
			ID: "002_profile_history",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Education{}, &Certification{}, &Experience{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("experiences", "certifications", "educations")
			},
		},

		// Migration 003: interview transcript
		{
			ID: "003_interview_logs",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&InterviewLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("interview_logs")
			},
		},

		// Migration 004: explicit interview session state
		{
			ID: "004_interview_sessions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&InterviewSession{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("interview_sessions")
			},
		},

		// Migration 005: assessment attempts, answers and results
		{
			ID: "005_assessments",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&AssessmentAttempt{}, &AssessmentAnswer{}, &AssessmentResult{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("assessment_results", "assessment_answers", "assessment_attempts")
			},
		},
	}
}

// runMigrations applies all pending migrations.
func runMigrations(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, migrations()).Migrate()
}

// RollbackLast undoes the most recent migration.
func (s *Store) RollbackLast() error {
	return gormigrate.New(s.DB, gormigrate.DefaultOptions, migrations()).RollbackLast()
}
