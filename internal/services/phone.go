package services

import (
	"strings"

	"field-trip-backend/internal/models"
)

const phoneDigits = 10

// NormalizePhone strips formatting and requires exactly ten digits
func NormalizePhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", newError(ErrInvalidInput, "Phone number is required", nil)
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) != phoneDigits {
		return "", newError(ErrInvalidInput, "Phone number must be 10 digits", nil)
	}
	return digits, nil
}

// normalizeStatus accepts enabled/disabled and the legacy on/off spelling.
// Empty means enabled; Update keeps the stored status instead.
func normalizeStatus(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", models.VolunteerEnabled, "on":
		return models.VolunteerEnabled, nil
	case models.VolunteerDisabled, "off":
		return models.VolunteerDisabled, nil
	}
	return "", newError(ErrInvalidInput, "Status must be enabled or disabled", nil)
}
