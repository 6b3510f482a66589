package handler

import (
	"time"

	"github.com/Elmeric/cycliti/internal/domain"
)

type userView struct {
	ID                uint           `json:"id"`
	UID               string         `json:"uid"`
	Email             string         `json:"email"`
	Username          string         `json:"username"`
	Name              string         `json:"name,omitempty"`
	City              string         `json:"city,omitempty"`
	Birthdate         string         `json:"birthdate,omitempty"`
	Gender            *domain.Gender `json:"gender,omitempty"`
	PhotoPath         string         `json:"photo_path,omitempty"`
	PhotoURL          string         `json:"photo_url,omitempty"`
	PreferredLanguage string         `json:"preferred_language"`
	AccessType        int            `json:"access_type"`
	IsActive          bool           `json:"is_active"`
	IsSuperuser       bool           `json:"is_superuser"`
	StravaLinked      bool           `json:"strava_linked"`
	CreatedAt         time.Time      `json:"created_at"`
}

func newUserView(u *domain.User) userView {
	return userView{
		ID:                u.ID,
		UID:               u.UID,
		Email:             u.Email,
		Username:          u.Username,
		Name:              u.Name,
		City:              u.City,
		Birthdate:         u.Birthdate,
		Gender:            u.Gender,
		PhotoPath:         u.PhotoPath,
		PreferredLanguage: u.PreferredLanguage,
		AccessType:        u.AccessType,
		IsActive:          u.IsActive,
		IsSuperuser:       u.IsSuperuser,
		StravaLinked:      u.StravaLinked(),
		CreatedAt:         u.CreatedAt,
	}
}

type userPageView struct {
	Items []userView `json:"items"`
	Skip  int        `json:"skip"`
	Limit int        `json:"limit"`
	Total int64      `json:"total"`
}

type msgView struct {
	Msg string `json:"msg"`
}
