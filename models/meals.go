package models

import (
	"fmt"
	"net/mail"
	"strings"
)

type Meal struct {
	Slug         string `firestore:"slug" json:"slug" yaml:"slug"`
	Title        string `firestore:"title" json:"title" yaml:"title"`
	Summary      string `firestore:"summary" json:"summary" yaml:"summary"`
	Image        string `firestore:"image" json:"image" yaml:"image"`
	Instructions string `firestore:"instructions" json:"instructions" yaml:"instructions"`
	Creator      string `firestore:"creator" json:"creator" yaml:"creator"`
	CreatorEmail string `firestore:"creator_email" json:"creator_email" yaml:"creator_email"`
}

// Validate reports the first missing field, or a creator email that is not a bare address.
// Stored meals always have every field populated.
func (m Meal) Validate() error {
	fields := []struct{ name, value string }{
		{"title", m.Title},
		{"slug", m.Slug},
		{"summary", m.Summary},
		{"image", m.Image},
		{"instructions", m.Instructions},
		{"creator", m.Creator},
		{"creator_email", m.CreatorEmail},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing '%s' field", f.name)
		}
	}
	addr, err := mail.ParseAddress(m.CreatorEmail)
	if err != nil || addr.Address != m.CreatorEmail {
		return fmt.Errorf("invalid 'creator_email' field %q", m.CreatorEmail)
	}
	return nil
}
