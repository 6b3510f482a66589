package domain

type ThirdPartyLink struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"uniqueIndex;not null"`
	AccessToken  string `gorm:"type:text;not null"`
	RefreshToken string `gorm:"type:text;not null"`
	// ExpiresAt is seconds since the UNIX epoch, as returned by Strava.
	ExpiresAt int64 `gorm:"not null"`
}

func (ThirdPartyLink) TableName() string { return "strava_links" }
