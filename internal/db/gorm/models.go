package gorm

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an account that can log in.
type User struct {
	CreatedAt      time.Time `gorm:"not null"`
	Username       string    `gorm:"uniqueIndex;not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	ID             int64     `gorm:"primaryKey;autoIncrement"`
}

func (User) TableName() string { return "users" }

// BeforeCreate hook to ensure timestamps are set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return nil
}

// Profile is the candidate data attached 1:1 to a user.
type Profile struct {
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time
	BirthDate         *time.Time
	NIK               string `gorm:"uniqueIndex;not null"`
	FullName          string `gorm:"not null"`
	Gender            string
	Phone             string
	Address           string `gorm:"type:text"`
	Bio               string `gorm:"type:text"`
	LinkedinURL       string
	PortfolioURL      string
	InstagramUsername string
	AvatarURL         string
	Skills            datatypes.JSON
	ID                int64 `gorm:"primaryKey;autoIncrement"`
	UserID            int64 `gorm:"uniqueIndex;not null"`
}

func (Profile) TableName() string { return "profiles" }

// BeforeCreate hook to ensure timestamps are set.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return nil
}

// Education is one row of education history.
type Education struct {
	CreatedAt         time.Time
	InstitutionName   *string
	Faculty           *string
	Major             *string
	GPA               *string
	FinalProjectTitle *string
	EnrollmentYear    *int
	GraduationYear    *int
	Level             string `gorm:"not null"`
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	ProfileID         int64  `gorm:"index;not null"`
	IsCurrent         bool   `gorm:"default:false"`
}

func (Education) TableName() string { return "educations" }

// Certification is one training or certification row.
type Certification struct {
	CreatedAt      time.Time
	Name           string `gorm:"not null"`
	Organizer      string `gorm:"not null"`
	Description    string `gorm:"type:text"`
	BidangKeahlian string
	ProofURL       string
	ID             int64 `gorm:"primaryKey;autoIncrement"`
	ProfileID      int64 `gorm:"index;not null"`
	Year           int   `gorm:"not null"`
}

func (Certification) TableName() string { return "certifications" }

// Experience is one row of work history.
type Experience struct {
	CreatedAt      time.Time
	StartDate      time.Time `gorm:"not null"`
	EndDate        *time.Time
	JobType        string `gorm:"not null"`
	Position       string `gorm:"not null"`
	CompanyName    string `gorm:"not null"`
	FunctionalArea string
	Description    string `gorm:"type:text"`
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	ProfileID      int64  `gorm:"index;not null"`
	IsCurrent      bool   `gorm:"default:false"`
}

func (Experience) TableName() string { return "experiences" }

// InterviewLog is one persisted interview turn. The result columns hold the
// terminal result parsed when the row was written.
type InterviewLog struct {
	CreatedAt    time.Time `gorm:"not null;index:idx_interview_logs_user_created,priority:2"`
	ResultArea   *string
	ResultLevel  *int
	ResultStatus *string
	UserPrompt   string `gorm:"type:text;not null"`
	AIResponse   string `gorm:"type:text;not null"`
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	UserID       int64  `gorm:"not null;index:idx_interview_logs_user_created,priority:1"`
	IsSeed       bool   `gorm:"default:false"`
}

func (InterviewLog) TableName() string { return "interview_logs" }

// BeforeCreate hook to ensure timestamps are set.
func (l *InterviewLog) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	return nil
}

// InterviewSession is the explicit interview state of one user.
type InterviewSession struct {
	StartedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
	ClosedAt    *time.Time
	ResultArea  *string
	ResultLevel *int
	Status      string `gorm:"type:text;check:status IN ('seed_sent', 'probing', 'closed');not null"`
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	UserID      int64  `gorm:"uniqueIndex;not null"`
	CycleStart  int    `gorm:"default:0"`
}

func (InterviewSession) TableName() string { return "interview_sessions" }

// AssessmentAttempt is one submitted assessment.
type AssessmentAttempt struct {
	CreatedAt  time.Time `gorm:"not null"`
	AreaFungsi string    `gorm:"not null"`
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	UserID     int64     `gorm:"index;not null"`
}

func (AssessmentAttempt) TableName() string { return "assessment_attempts" }

// AssessmentAnswer is one answered question of an attempt.
type AssessmentAnswer struct {
	OpsiJawaban  datatypes.JSON
	Soal         string `gorm:"type:text"`
	JawabanUser  string `gorm:"type:text"`
	KunciJawaban string
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	AttemptID    int64 `gorm:"index;not null"`
	NomorSoal    int
	IsCorrect    bool
}

func (AssessmentAnswer) TableName() string { return "assessment_answers" }

// AssessmentResult is the scored outcome of an attempt.
type AssessmentResult struct {
	CreatedAt    time.Time `gorm:"not null;index:idx_assessment_results_user_created,priority:2"`
	RawData      datatypes.JSON
	AreaFungsi   string  `gorm:"not null"`
	Status       string  `gorm:"type:text;check:status IN ('lulus', 'gagal');not null"`
	Score        float64 `gorm:"not null"`
	Threshold    float64
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	AttemptID    int64 `gorm:"uniqueIndex;not null"`
	UserID       int64 `gorm:"not null;index:idx_assessment_results_user_created,priority:1"`
	CorrectCount int
	Total        int
}

func (AssessmentResult) TableName() string { return "assessment_results" }
