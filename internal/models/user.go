// internal/models/user.go
package models

import (
	"github.com/lib/pq"
)

// User is the shared account row for brands, influencers and customers.
// Credentials live with the external auth service.
type User struct {
	BaseModel
	Username      string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email         string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	UserType      UserType       `json:"user_type" gorm:"type:varchar(20);not null;index"`
	Status        UserStatus     `json:"status" gorm:"type:varchar(20);default:'active'"`
	ReferralCode  *string        `json:"referral_code,omitempty" gorm:"size:32;uniqueIndex"`
	FollowerCount int64          `json:"follower_count" gorm:"default:0"`
	Channels      pq.StringArray `json:"channels" gorm:"type:text[]"`
	ProfileData   JSONB          `json:"profile_data" gorm:"type:jsonb"`
}

func (u *User) HasChannels(required []string) bool {
	for _, want := range required {
		found := false
		for _, have := range u.Channels {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
