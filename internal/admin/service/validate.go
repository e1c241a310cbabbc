package service

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
)

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// sanitizeHTML escapes markup characters. It leaves '&' alone, so applying
// it to already escaped text changes nothing.
func sanitizeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// validateScript applies the catalog editor rules to an incoming script.
func validateScript(s domain.Script) error {
	title := utf8.RuneCountInString(s.Title)
	switch {
	case title < 3:
		return invalid("title", "Title must be at least 3 characters")
	case title > 100:
		return invalid("title", "Title must be at most 100 characters")
	case utf8.RuneCountInString(s.Description) < 10:
		return invalid("description", "Description must be at least 10 characters")
	case !validLink(s.Link):
		return invalid("link", "Must be a valid URL")
	case s.Downloads < 0:
		return invalid("downloads", "Downloads must not be negative")
	case strings.TrimSpace(s.Category) == "":
		return invalid("category", "Category is required")
	case s.ID < 0:
		return invalid("id", "ID must not be negative")
	}
	return nil
}

// validLink accepts absolute http and https URLs only.
func validLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func sanitizeScript(s domain.Script) domain.Script {
	s.Title = sanitizeHTML(s.Title)
	s.Description = sanitizeHTML(s.Description)
	s.Category = sanitizeHTML(s.Category)
	return s
}
