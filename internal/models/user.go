package models

import (
	"time"
)

// Role codes, in descending order of privilege.
const (
	RoleSuper = "super"
	RoleAdmin = "admin"
	RoleModer = "moder"
	RoleOper  = "oper"

	// RoleAnyone is the wildcard accepted by the access guard: any
	// authenticated user passes the role check.
	RoleAnyone = "anyone"
)

// StatusBlocked denies every protected request for the account.
const StatusBlocked = "blocked"

type User struct {
	ID             int64      `json:"id"`
	LastName       string     `json:"last_name"`
	FirstName      string     `json:"first_name"`
	MiddleName     string     `json:"middle_name"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Phone          string     `json:"phone"`
	DeptID         int64      `json:"dept_id"`
	StatusCode     string     `json:"status_code"`
	Roles          []string   `json:"roles"`
	IsLoggedIn     bool       `json:"is_logged_in"`
	ValidIP        string     `json:"valid_ip"`
	LoggedInAt     *time.Time `json:"logged_in_at"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (u *User) FullName() string {
	if u.MiddleName == "" {
		return u.LastName + " " + u.FirstName
	}
	return u.LastName + " " + u.FirstName + " " + u.MiddleName
}

// HasRole reports whether the user holds any of the given role codes.
// The "anyone" wildcard matches every authenticated user.
func (u *User) HasRole(codes ...string) bool {
	for _, code := range codes {
		if code == RoleAnyone {
			return true
		}
		for _, have := range u.Roles {
			if have == code {
				return true
			}
		}
	}
	return false
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	LastName   string   `json:"last_name"`
	FirstName  string   `json:"first_name"`
	MiddleName string   `json:"middle_name"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Phone      string   `json:"phone"`
	DeptID     int64    `json:"dept_id"`
	Roles      []string `json:"roles"`
}

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
