package dto

import "time"

type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResult struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        UserOutput `json:"user"`
}
