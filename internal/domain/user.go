package domain

import "time"

type Gender uint8

const (
	GenderMale Gender = iota + 1
	GenderFemale
	GenderOther
)

const (
	DefaultPreferredLanguage = "fr-FR"
	DefaultAccessType        = 1
)

// User owns at most one of each side record. Side records cascade on user
// deletion; removing one alone marks its flow as completed.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UID               string    `gorm:"size:32;uniqueIndex;not null" json:"uid"`
	Email             string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username          string    `gorm:"size:16;uniqueIndex;not null" json:"username"`
	HashedPassword    string    `gorm:"type:text;not null" json:"-"`
	Name              string    `gorm:"size:64" json:"name,omitempty"`
	City              string    `gorm:"size:64" json:"city,omitempty"`
	Birthdate         string    `gorm:"size:10" json:"birthdate,omitempty"`
	Gender            *Gender   `json:"gender,omitempty"`
	PhotoPath         string    `gorm:"size:254" json:"photo_path,omitempty"`
	PreferredLanguage string    `gorm:"size:10;not null;default:fr-FR" json:"preferred_language"`
	AccessType        int       `gorm:"not null;default:1" json:"access_type"`
	IsActive          bool      `gorm:"not null;default:false" json:"is_active"`
	IsSuperuser       bool      `gorm:"not null;default:false" json:"is_superuser"`
	FailedLogins      int       `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Activation     *Activation     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PasswordReset  *PasswordReset  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ThirdPartyLink *ThirdPartyLink `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) PendingActivation() bool {
	return u != nil && !u.IsActive && u.Activation != nil
}

func (u *User) ResetPending() bool {
	return u != nil && u.PasswordReset != nil
}

func (u *User) StravaLinked() bool {
	return u != nil && u.ThirdPartyLink != nil
}
