package services

import (
	"strings"
	"unicode/utf8"

	apperrors "clinic-queue.com/clinic-queue/internal/errors"
)

const (
	minNameLength  = 3
	maxNameLength  = 50
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// normalizeTokenInput trims the patient name, reduces the phone number to its
// digits and reports every field that fails in a single validation error.
func normalizeTokenInput(patientName, phoneNumber string) (string, string, error) {
	fields := make(map[string]string)

	name := strings.TrimSpace(patientName)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		fields["patientName"] = "patient name is required"
	case n < minNameLength:
		fields["patientName"] = "patient name must be at least 3 characters"
	case n > maxNameLength:
		fields["patientName"] = "patient name cannot exceed 50 characters"
	}

	phone := strings.TrimSpace(phoneNumber)
	digits := onlyDigits(phone)
	switch {
	case phone == "":
		fields["phoneNumber"] = "phone number is required"
	case len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits:
		fields["phoneNumber"] = "phone number must contain 10 to 15 digits"
	}

	if len(fields) > 0 {
		return "", "", apperrors.NewValidationError(fields)
	}

	return name, digits, nil
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
