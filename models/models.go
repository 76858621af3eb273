package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Workflow status values shared by adviser acceptances, panel approvals and theses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// College model
type College struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null"`
	Acronym string `json:"acronym" gorm:"size:50;not null;uniqueIndex"`

	// Relationships
	Departments []Department `json:"departments,omitempty" gorm:"foreignKey:CollegeID"`
}

// Department model
type Department struct {
	BaseModel
	CollegeID uint   `json:"college_id" gorm:"not null"`
	Name      string `json:"name" gorm:"size:255;not null"`
	Acronym   string `json:"acronym" gorm:"size:50;not null"`

	// Relationships
	College College `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
}

// User model
type User struct {
	BaseModel
	FirstName      string `json:"firstname" gorm:"size:100;not null"`
	MiddleName     string `json:"middlename" gorm:"size:100"`
	LastName       string `json:"lastname" gorm:"size:100;not null"`
	Suffix         string `json:"suffix" gorm:"size:20"`
	Username       string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password       string `json:"-" gorm:"size:255;not null"`
	Email          string `json:"email" gorm:"size:255;not null"`
	IDNumber       string `json:"id_number" gorm:"size:50;not null"`
	DepartmentID   uint   `json:"department_id" gorm:"not null"`
	CollegeID      uint   `json:"college_id" gorm:"not null"`
	UserType       string `json:"user_type" gorm:"size:50;not null;type:enum('student','faculty','coordinator','admin')"` // student, faculty, coordinator, admin
	Approved       bool   `json:"approved" gorm:"default:false"`
	ProfilePicture string `json:"profile_picture" gorm:"size:500"`

	// Relationships
	Department Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	College    College    `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
}

// AdviserAcceptance represents one sign-off request sent to an adviser or co-adviser.
// A proposal with a co-adviser produces two rows sharing the same students and title.
type AdviserAcceptance struct {
	BaseModel
	Student1ID   uint   `json:"student1_id" gorm:"not null"`
	Student2ID   *uint  `json:"student2_id"`
	Student3ID   *uint  `json:"student3_id"`
	AdviserID    uint   `json:"adviser_id" gorm:"not null"`
	CoAdviserID  *uint  `json:"co_adviser_id"`
	Role         string `json:"role" gorm:"size:50;not null;default:'adviser';type:enum('adviser','coAdviser')"` // adviser, coAdviser
	ProposeTitle string `json:"propose_title" gorm:"size:500;not null"`
	Remarks      string `json:"remarks" gorm:"type:text"`
	ThesisFile   string `json:"thesis_file" gorm:"size:500"`
	Status       string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','approved','rejected')"`

	// Relationships
	Student1 User  `json:"student1,omitempty" gorm:"foreignKey:Student1ID"`
	Student2 *User `json:"student2,omitempty" gorm:"foreignKey:Student2ID"`
	Student3 *User `json:"student3,omitempty" gorm:"foreignKey:Student3ID"`
	Adviser  User  `json:"adviser,omitempty" gorm:"foreignKey:AdviserID"`
}

// PanelApproval represents one sign-off request sent to a panel member for an
// accepted proposal.
type PanelApproval struct {
	BaseModel
	ProposalID   uint   `json:"proposal_id" gorm:"not null"`
	PanelID      uint   `json:"panel_id" gorm:"not null"`
	ProposeTitle string `json:"propose_title" gorm:"size:500"`
	ThesisFile   string `json:"thesis_file" gorm:"size:500"`
	Remarks      string `json:"remarks" gorm:"type:text"`
	Status       string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','approved','rejected')"`

	// Relationships
	Proposal AdviserAcceptance `json:"proposal,omitempty" gorm:"foreignKey:ProposalID"`
	Panel    User              `json:"panel,omitempty" gorm:"foreignKey:PanelID"`
}

// Thesis model
type Thesis struct {
	BaseModel
	Title       string `json:"thesis_title" gorm:"size:500;not null"`
	AdviserID   uint   `json:"adviser_id" gorm:"not null"`
	CoAdviserID *uint  `json:"co_adviser_id"`
	Status      string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','approved','rejected')"`
	Type        string `json:"type" gorm:"size:50;not null;type:enum('proposal','final')"` // proposal, final
	Document    string `json:"document" gorm:"size:500"`
	RatingCount int    `json:"rating_count" gorm:"default:0"`

	// Relationships
	Adviser      User           `json:"adviser,omitempty" gorm:"foreignKey:AdviserID"`
	CoAdviser    *User          `json:"co_adviser,omitempty" gorm:"foreignKey:CoAdviserID"`
	Students     []ThesisMember `json:"students,omitempty" gorm:"foreignKey:ThesisID"`
	PanelReviews []PanelReview  `json:"panel_reviews,omitempty" gorm:"foreignKey:ThesisID"`
}

// ThesisMember links a student to a thesis (up to three students per thesis)
type ThesisMember struct {
	BaseModel
	ThesisID  uint `json:"thesis_id" gorm:"not null;uniqueIndex:idx_thesis_student"`
	StudentID uint `json:"student_id" gorm:"not null;uniqueIndex:idx_thesis_student"`

	// Relationships
	Student User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// PanelReview is the per-panelist verdict attached to a thesis. Thesis status is
// derived from these rows on the write path only.
type PanelReview struct {
	BaseModel
	ThesisID uint   `json:"thesis_id" gorm:"not null;uniqueIndex:idx_thesis_panel"`
	PanelID  uint   `json:"panel_id" gorm:"not null;uniqueIndex:idx_thesis_panel"`
	Status   string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','approved','rejected')"`
	Remarks  string `json:"remarks" gorm:"type:text"`

	// Relationships
	Panel User `json:"panel,omitempty" gorm:"foreignKey:PanelID"`
}

// Booking is a persisted commitment for one participant on one date. Times are
// zero-padded 24-hour "HH:MM" strings so ranges compare lexicographically.
type Booking struct {
	BaseModel
	UserID    uint   `json:"user_id" gorm:"not null;index:idx_booking_user_date"`
	Date      string `json:"date" gorm:"size:10;not null;index:idx_booking_user_date"` // YYYY-MM-DD
	StartTime string `json:"start_time" gorm:"size:5;not null"`                        // HH:MM
	EndTime   string `json:"end_time" gorm:"size:5;not null"`                          // HH:MM
	Label     string `json:"label" gorm:"size:255"`
	EventType string `json:"event_type" gorm:"size:50;not null;default:'defense';type:enum('defense','proposal','meeting','event')"`
	ThesisID  *uint  `json:"thesis_id" gorm:"index"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID   uint       `json:"user_id" gorm:"not null"`
	ThesisID *uint      `json:"thesis_id"`
	Title    string     `json:"title" gorm:"size:255;not null"`
	Message  string     `json:"message" gorm:"type:text;not null"`
	Type     string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Remarks  string     `json:"remarks" gorm:"type:text"`
	Read     bool       `json:"read" gorm:"default:false"`
	ReadAt   *time.Time `json:"read_at"`

	// Relationships
	User   User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Thesis *Thesis `json:"thesis,omitempty" gorm:"foreignKey:ThesisID"`
}

// Favorite marks a thesis bookmarked by a user
type Favorite struct {
	BaseModel
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_user_thesis"`
	ThesisID uint `json:"thesis_id" gorm:"not null;uniqueIndex:idx_user_thesis"`

	// Relationships
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Thesis Thesis `json:"thesis,omitempty" gorm:"foreignKey:ThesisID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
