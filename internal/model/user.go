package model

import "time"

// Roles carried by directory users.
const (
	RoleMember = "member"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// User directory entry — users. Owned by the identity service, read-only here.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FullName  string    `gorm:"type:varchar(150)"                               json:"full_name"`
	Username  string    `gorm:"type:varchar(100);not null;uniqueIndex"          json:"username"`
	Role      string    `gorm:"type:varchar(20);not null;default:'member'"      json:"role"`
	Rank      string    `gorm:"type:varchar(60)"                                json:"rank,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"              json:"created_at"`
}

// TableName table name
func (User) TableName() string { return "users" }

// DisplayName full name, falling back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
