// Package domain defines the persistence models for quotes and testimonials.
// These types are mapped with GORM and form the core data layer of the
// quote-calculator application.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Quote lifecycle states. A quote starts as StatusNew and is moved through
// the workflow by administrative status syncs only.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusConverted = "converted"
	StatusRejected  = "rejected"
)

// ValidStatus reports whether s is a recognized quote workflow state.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusContacted, StatusConverted, StatusRejected:
		return true
	}
	return false
}

// Snapshot is the opaque structured form input captured with a submission.
// It is persisted as a JSON text column.
type Snapshot map[string]any

// Value implements driver.Valuer for JSON storage.
func (s Snapshot) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON storage.
func (s *Snapshot) Scan(src any) error {
	return scanJSON(src, s)
}

// Breakdown itemizes a quote total into signed component amounts in minor
// currency units. The signed sum of all components equals the total.
type Breakdown map[string]int64

// Value implements driver.Valuer for JSON storage.
func (b Breakdown) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for JSON storage.
func (b *Breakdown) Scan(src any) error {
	return scanJSON(src, b)
}

// Sum returns the signed total of all components.
func (b Breakdown) Sum() int64 {
	var total int64
	for _, v := range b {
		total += v
	}
	return total
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSON column type")
	}
}

// Quote represents one calculator submission.
//
// Identity is twofold: the server-assigned numeric ID and a content-derived
// Fingerprint, a stable hash over the normalized input snapshot plus the
// computed total. The fingerprint is unique; a second submission with the
// same fingerprint never creates a new row and resolves to the existing one.
//
// Fields:
//   - Data: opaque input snapshot from the calculator form.
//   - TotalPrice: computed total in minor units; always >= 0.
//   - Breakdown: signed per-component amounts; sums to TotalPrice when present.
//   - Name / Email / Phone: optional contact details.
//   - Language: normalized BCP-47 tag of the submitting client.
//   - IP / IPHash / Country / Device / UserAgent: enrichment; IP stays null
//     unless raw storage is explicitly enabled and anonymization disabled.
//   - UTM* / GCLID: marketing attribution captured verbatim.
//   - Status: workflow state, starts at "new".
//   - DeletedAt: soft-delete marker set by the retention sweep.
type Quote struct {
	ID          uint      `json:"id"          gorm:"primaryKey;autoIncrement"`
	Fingerprint string    `json:"-"           gorm:"type:char(64);not null;uniqueIndex:ux_quotes_fingerprint"`
	Data        Snapshot  `json:"data"        gorm:"type:text;not null"`
	TotalPrice  int64     `json:"total_price" gorm:"not null;check:total_price >= 0"`
	Currency    string    `json:"currency"    gorm:"type:char(3);not null"`
	Breakdown   Breakdown `json:"breakdown"   gorm:"type:text"`

	// Contact (optional)
	Name     string `json:"name,omitempty"  gorm:"type:varchar(255)"`
	Email    string `json:"email,omitempty" gorm:"type:varchar(255);index"`
	Phone    string `json:"phone,omitempty" gorm:"type:varchar(64)"`
	Language string `json:"language"        gorm:"type:varchar(35)"`

	// Enrichment
	IP        *string `json:"-" gorm:"type:varchar(45)"`
	IPHash    string  `json:"-" gorm:"type:char(64);index"`
	Country   string  `json:"-" gorm:"type:char(2)"`
	Device    string  `json:"-" gorm:"type:varchar(16)"`
	UserAgent string  `json:"-" gorm:"type:varchar(512)"`

	// Marketing attribution
	UTMSource   string `json:"-" gorm:"type:varchar(255)"`
	UTMMedium   string `json:"-" gorm:"type:varchar(255)"`
	UTMCampaign string `json:"-" gorm:"type:varchar(255)"`
	UTMTerm     string `json:"-" gorm:"type:varchar(255)"`
	UTMContent  string `json:"-" gorm:"type:varchar(255)"`
	GCLID       string `json:"-" gorm:"type:varchar(255)"`

	Status    string         `json:"status" gorm:"type:varchar(16);not null;default:'new';index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Quote.
func (Quote) TableName() string { return "quotes" }

// Testimonial is a plain CRUD record shown on the marketing pages. Only
// approved entries are served publicly.
type Testimonial struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	Author    string         `json:"author"   gorm:"type:varchar(255);not null"`
	Body      string         `json:"body"     gorm:"type:text;not null"`
	Rating    int            `json:"rating"   gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Approved  bool           `json:"approved" gorm:"not null;default:false;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Testimonial.
func (Testimonial) TableName() string { return "testimonials" }
