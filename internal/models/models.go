// Package models defines types shared across internal packages.
package models

import "strings"

// Credentials is the persisted access/refresh token pair. A session
// exists only when both tokens are set.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Complete reports whether both tokens are present.
func (c Credentials) Complete() bool {
	return c.Access != "" && c.Refresh != ""
}

// Industry is the organizational group a user belongs to.
type Industry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Role is the user's role within their industry.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// Profile is the authenticated user as returned by GET /users/me/.
type Profile struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        *Role     `json:"role,omitempty"`
	Industry    *Industry `json:"industry,omitempty"`
}

// Handle returns the username, falling back to the local part of the
// email address when the server omits it.
func (p *Profile) Handle() string {
	if p.Username != "" {
		return p.Username
	}

	local, _, _ := strings.Cut(p.Email, "@")

	return local
}

// DisplayName returns "First Last" when available, otherwise Handle.
func (p *Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}

	return p.Handle()
}

// IndustryID returns the industry ID, or 0 when none is assigned.
func (p *Profile) IndustryID() int64 {
	if p.Industry == nil {
		return 0
	}

	return p.Industry.ID
}

// RoleName returns the role display name, falling back to its name.
func (p *Profile) RoleName() string {
	if p.Role == nil {
		return ""
	}

	if p.Role.DisplayName != "" {
		return p.Role.DisplayName
	}

	return p.Role.Name
}
