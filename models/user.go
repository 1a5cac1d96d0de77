package models

import "github.com/uptrace/bun"

// Roles recognised by the admin guard.
const (
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

// User is an API user with bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:api_users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,type:varchar(64),notnull,unique" json:"username"`
	Password string `bun:"password,type:varchar(255),notnull" json:"-"`
	Role     string `bun:"role,type:varchar(16),notnull,default:'guest'" json:"role"`
}
