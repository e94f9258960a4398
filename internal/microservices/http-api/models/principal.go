package models

import "time"

// only 2 roles for now
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Principal is an authenticated user record keyed by email.
type Principal struct {
	Email     string    `gorm:"primaryKey" bson:"_id" json:"email"`
	Name      string    `gorm:"not null;default:''" bson:"name" json:"name"`
	Photo     string    `gorm:"not null;default:''" bson:"photo" json:"photo"`
	Role      string    `gorm:"not null;default:'user'" bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (Principal) TableName() string {
	return "principals"
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
