package domain

// PasswordReset counts reset requests since the last successful reset or
// login. Every request rotates Nonce and IssuedAt.
type PasswordReset struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"uniqueIndex;not null"`
	Nonce    string `gorm:"type:text;not null"`
	IssuedAt int64  `gorm:"not null"`
	Attempts int    `gorm:"not null;default:1"`
}
