package model

import "time"

// SocialLinks holds optional links shown on an artist profile.
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

// Artist is the public profile owned by an account with RoleArtist.  There
// is at most one profile per account.
type Artist struct {
	ID          uint64      `json:"id"`
	AccountID   uint64      `json:"userId"`
	StageName   string      `json:"stageName"`
	Bio         string      `json:"bio,omitempty"`
	City        string      `json:"city"`
	SocialLinks SocialLinks `json:"socialLinks"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
