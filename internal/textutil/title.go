package textutil

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase converts a string to title case for display names.
func TitleCase(text string) string {
	return cases.Title(language.Und).String(text)
}
