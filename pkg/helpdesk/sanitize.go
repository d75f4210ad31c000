package helpdesk

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextSize bounds every free-text form field, in bytes.
const MaxTextSize = 4096

type textField struct {
	name  string
	value *string
}

// sanitize rejects oversized or invalid UTF-8 text and strips control
// characters other than newline, tab and carriage return, in place.
func sanitize(fields ...textField) error {
	for _, f := range fields {
		input := *f.value
		if len(input) > MaxTextSize {
			return &ValidationError{
				Message: fmt.Sprintf("Teks terlalu panjang (maksimal %d karakter).", MaxTextSize),
				Fields:  []string{f.name},
			}
		}
		if !utf8.ValidString(input) {
			return &ValidationError{Message: "Teks mengandung karakter yang tidak valid.", Fields: []string{f.name}}
		}
		*f.value = stripControl(input)
	}
	return nil
}

func stripControl(input string) string {
	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func (in *TicketInput) sanitize() error {
	return sanitize(
		textField{"Unit", &in.Unit},
		textField{"Category", &in.Category},
		textField{"Question", &in.Question},
	)
}

func (in *ResponseInput) sanitize() error {
	return sanitize(textField{"Answer", &in.Answer})
}

func (in *FAQInput) sanitize() error {
	return sanitize(
		textField{"Question", &in.Question},
		textField{"Answer", &in.Answer},
	)
}
