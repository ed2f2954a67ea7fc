package auth

import (
	"strings"
	"time"
)

// User is an account created on first OAuth login. Email is the natural
// key; the identity provider is the source of truth for profile fields.
// IDs are UUID strings to avoid ObjectID conversion.
type User struct {
	ID           string     `bson:"_id,omitempty" json:"id"`
	Email        string     `bson:"email" json:"email"`
	Name         string     `bson:"name" json:"name"`
	JobTitle     string     `bson:"job_title,omitempty" json:"job_title,omitempty"`
	Department   string     `bson:"department,omitempty" json:"department,omitempty"`
	Role         UserRole   `bson:"role" json:"role"`
	AuthProvider string     `bson:"auth_provider" json:"auth_provider"`
	MicrosoftID  string     `bson:"microsoft_id,omitempty" json:"microsoft_id,omitempty"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// Company derives a company name from the email domain. Known public
// mail providers yield an empty company.
func (u *User) Company() string {
	return CompanyFromEmail(u.Email)
}

var publicProviders = map[string]bool{
	"gmail.com":   true,
	"outlook.com": true,
	"hotmail.com": true,
	"yahoo.com":   true,
	"aol.com":     true,
	"icloud.com":  true,
}

// CompanyFromEmail extracts a display company name from an email domain.
func CompanyFromEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	domain := strings.ToLower(email[at+1:])
	if publicProviders[domain] {
		return ""
	}
	name := strings.SplitN(domain, ".", 2)[0]
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// UserRole gates the admin endpoints.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// IsValid reports whether the role is one of the two known values.
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// String returns the role string
func (r UserRole) String() string {
	return string(r)
}
