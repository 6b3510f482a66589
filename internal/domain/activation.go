package domain

// Activation holds the pending email-verification nonce of an inactive user.
// IssuedAt is seconds since the UNIX epoch.
type Activation struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"uniqueIndex;not null"`
	Nonce    string `gorm:"type:text;not null"`
	IssuedAt int64  `gorm:"not null"`
}
