package types

import "strings"

// Link is a named address in a student's lesson list: a generated lesson
// page or an external document.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Validate reports ErrInvalidInput when the name or URL is blank.
func (l Link) Validate() error {
	if strings.TrimSpace(l.Name) == "" || strings.TrimSpace(l.URL) == "" {
		return ErrInvalidInput
	}
	return nil
}
