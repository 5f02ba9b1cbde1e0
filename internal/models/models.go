package models

import "time"

type User struct {
	ID              string     `db:"id"`
	Email           string     `db:"email"`
	PasswordHash    string     `db:"password_hash"`
	Status          string     `db:"status"`
	IsEmailVerified bool       `db:"is_email_verified"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	LastLoginAt     *time.Time `db:"last_login_at"`
	LastSeenAt      *time.Time `db:"last_seen_at"`
}

const (
	UserStatusPending  = "PENDING"
	UserStatusActive   = "ACTIVE"
	UserStatusDisabled = "DISABLED"
)

const (
	RoleAdmin   = "ADMIN"
	RoleOwner   = "OWNER"
	RoleStudent = "STUDENT"
)

type MediaAsset struct {
	ID          string    `db:"id"`
	OwnerUserID *string   `db:"owner_user_id"`
	Bucket      string    `db:"bucket"`
	StorageKey  string    `db:"storage_key"`
	Filename    *string   `db:"filename"`
	Type        string    `db:"type"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	Sha256      *string   `db:"sha256"`
	CreatedAt   time.Time `db:"created_at"`
}

// RentSlab is the rent charged per student for a given room sharing.
type RentSlab struct {
	StudentsPerRoom int `json:"studentsPerRoom" db:"students_per_room"`
	RentPerStudent  int `json:"rentPerStudent" db:"rent_per_student"`
}

type Feedback struct {
	StudentID string `json:"studentId,omitempty" db:"student_id"`
	Rating    int    `json:"rating" db:"rating"`
	Comment   string `json:"comment" db:"comment"`
}

// Image carries inline photo bytes as base64 text.
type Image struct {
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

type Hostel struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId,omitempty"`
	OwnerName       string     `json:"ownerName,omitempty"`
	Name            string     `json:"name"`
	Address         string     `json:"address"`
	Beds            int        `json:"beds"`
	HostelType      string     `json:"hostelType"`
	StudentsPerRoom int        `json:"studentsPerRoom"`
	Food            bool       `json:"food"`
	Verified        bool       `json:"verified"`
	RentStructure   []RentSlab `json:"rentStructure"`
	Feedback        []Feedback `json:"feedback"`
	Images          []Image    `json:"images"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

type HostelRow struct {
	ID              string    `db:"id"`
	OwnerID         *string   `db:"owner_id"`
	OwnerName       *string   `db:"owner_name"`
	Name            string    `db:"name"`
	Address         string    `db:"address"`
	Beds            int       `db:"beds"`
	HostelType      string    `db:"hostel_type"`
	StudentsPerRoom int       `db:"students_per_room"`
	Food            bool      `db:"food"`
	Verified        bool      `db:"verified"`
	CreatedAt       time.Time `db:"created_at"`
}

type HostelVisit struct {
	HostelID string `json:"hostel"`
	Status   string `json:"status"`
}

type Student struct {
	ID                string        `json:"id" db:"id"`
	Name              string        `json:"name" db:"name"`
	Email             string        `json:"email" db:"email"`
	Contact           string        `json:"contact" db:"contact"`
	FatherName        string        `json:"fatherName" db:"father_name"`
	FatherContact     string        `json:"fatherContact" db:"father_contact"`
	College           string        `json:"college" db:"college"`
	Course            string        `json:"course" db:"course"`
	Address           string        `json:"address" db:"address"`
	Wishlist          []string      `json:"wishlist" db:"-"`
	WishlistSubmitted bool          `json:"wishlistSubmitted" db:"wishlist_submitted"`
	WishlistApproved  bool          `json:"wishlistApproved" db:"wishlist_approved"`
	AdmittedHostel    *string       `json:"admittedHostel" db:"admitted_hostel_id"`
	AdmissionReceipt  *string       `json:"admissionReceipt" db:"admission_receipt_media_id"`
	CashbackApplied   bool          `json:"cashbackApplied" db:"cashback_applied"`
	HostelVisits      []HostelVisit `json:"hostelVisits" db:"-"`
}

const (
	OwnerActive   = "active"
	OwnerInactive = "inactive"
)

type Owner struct {
	ID      string   `json:"id" db:"id"`
	Name    string   `json:"name" db:"name"`
	Email   string   `json:"email" db:"email"`
	Contact string   `json:"contact" db:"contact"`
	Address string   `json:"address" db:"address"`
	Status  string   `json:"status" db:"status"`
	Hostels []string `json:"hostels" db:"-"`
}

// Group links one module to the role names that may act on it.
type Group struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	ModuleID     string     `json:"moduleId" db:"module_id"`
	ModuleName   string     `json:"moduleName" db:"module_name"`
	Roles        []string   `json:"roles" db:"-"`
	DateModified *time.Time `json:"dateModified,omitempty" db:"date_modified"`
}

type Module struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Permission struct {
	ModuleID   string `json:"moduleId" db:"module_id"`
	ModuleName string `json:"moduleName" db:"module_name"`
	Read       bool   `json:"read" db:"can_read"`
	Write      bool   `json:"write" db:"can_write"`
	Edit       bool   `json:"edit" db:"can_edit"`
	Delete     bool   `json:"delete" db:"can_delete"`
}

// Role is keyed by Name; it has no id of its own.
type Role struct {
	Name        string                  `json:"name"`
	Groups      []Group                 `json:"groups"`
	Permissions map[string][]Permission `json:"permissions"`
}

const (
	ComplaintOpen     = "open"
	ComplaintNoticed  = "noticed"
	ComplaintResolved = "resolved"
)

type Complaint struct {
	ID            string    `json:"id" db:"id"`
	StudentID     *string   `json:"studentId,omitempty" db:"student_id"`
	StudentName   *string   `json:"studentName,omitempty" db:"student_name"`
	HostelID      string    `json:"hostelId" db:"hostel_id"`
	HostelName    string    `json:"hostelName" db:"hostel_name"`
	ComplaintType string    `json:"complaintType" db:"complaint_type"`
	Description   string    `json:"description" db:"description"`
	IsAnonymous   bool      `json:"isAnonymous" db:"is_anonymous"`
	Status        string    `json:"status" db:"status"`
	Images        []string  `json:"images" db:"-"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

const (
	VisitPending       = "pending"
	VisitAccepted      = "accepted"
	VisitNotInterested = "not_interested"
)

type Visit struct {
	ID          string    `json:"id" db:"id"`
	StudentID   string    `json:"studentId" db:"student_id"`
	StudentName string    `json:"studentName" db:"student_name"`
	HostelID    string    `json:"hostelId" db:"hostel_id"`
	HostelName  string    `json:"hostelName" db:"hostel_name"`
	Date        string    `json:"date" db:"visit_date"`
	Time        string    `json:"time" db:"visit_time"`
	Email       string    `json:"email" db:"email"`
	Status      string    `json:"status" db:"status"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type Task struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"ownerId" db:"owner_id"`
	HostelID    string    `json:"hostelId" db:"hostel_id"`
	StudentID   *string   `json:"studentId,omitempty" db:"student_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
