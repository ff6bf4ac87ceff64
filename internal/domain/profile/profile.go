package profile

import (
	"fmt"
	"strings"
)

// Profile is the credential record of a workspace Admin or of the Super Admin
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
	ImageURL string `json:"imageUrl"`
	Contact  string `json:"contact"`
}

// Validate checks if the profile data is valid
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// Matches compares credentials exactly; ids are case-sensitive
func (p *Profile) Matches(id, password string) bool {
	return p != nil && p.ID == id && p.Password == password
}

// DefaultSuperAdmin is the seeded global administrator
func DefaultSuperAdmin(id, password string) Profile {
	return Profile{
		ID:       id,
		Name:     "Super Admin",
		Password: password,
	}
}
