package profile

import (
	"regexp"
	"time"

	"github.com/jobdeck/backend/internal/httpx"
)

var (
	emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	dobRx   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	allowedGenders = map[string]bool{
		"Male": true, "Female": true, "Other": true, "Prefer not to say": true,
	}
	allowedRoles       = map[string]bool{"student": true, "tutor": true}
	allowedBackgrounds = map[string]bool{"student": true, "experienced": true}
)

const (
	minAge = 13
	maxAge = 120
)

// parseDOB returns the date of birth, rejecting impossible calendar days.
func parseDOB(s string) (time.Time, bool) {
	if !dobRx.MatchString(s) {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

func lengthBetween(s string, lo, hi int) bool {
	return len(s) >= lo && len(s) <= hi
}

// fieldChecks validates the format of every non-empty field of the merged
// record, appending one error per violation.
func fieldChecks(p Profile, now time.Time, errs []httpx.FieldError) []httpx.FieldError {
	add := func(field, message string) {
		errs = append(errs, httpx.FieldError{Field: field, Message: message})
	}

	if p.FullName != "" && !lengthBetween(p.FullName, 2, 80) {
		add("fullName", "Must be 2-80 characters.")
	}
	if p.Email != "" && !emailRx.MatchString(p.Email) {
		add("email", "Email is not valid.")
	}
	if p.DOB != "" {
		if dob, ok := parseDOB(p.DOB); !ok {
			add("dob", "Must be in YYYY-MM-DD format and be a real date.")
		} else if a := age(dob, now); a < minAge || a > maxAge {
			add("dob", "Age must be between 13 and 120.")
		}
	}
	if p.Gender != "" && !allowedGenders[p.Gender] {
		add("gender", "Must be one of: Male, Female, Other, Prefer not to say.")
	}
	if p.Country != "" && !lengthBetween(p.Country, 2, 80) {
		add("country", "Must be 2-80 characters.")
	}
	if p.City != "" && !lengthBetween(p.City, 2, 80) {
		add("city", "Must be 2-80 characters.")
	}
	if p.Role != "" && !allowedRoles[p.Role] {
		add("role", "Must be 'student' or 'tutor'.")
	}
	if p.BackgroundType != "" && !allowedBackgrounds[p.BackgroundType] {
		add("backgroundType", "Must be 'student' or 'experienced'.")
	}
	if p.UniversityName != "" && len(p.UniversityName) > 120 {
		add("universityName", "Too long (max 120).")
	}
	if p.JobExperience != "" && len(p.JobExperience) > 200 {
		add("jobExperience", "Too long (max 200).")
	}
	return errs
}

// crossField enforces the background rule on a merged record.
func crossField(p Profile, patch Patch, errs []httpx.FieldError) []httpx.FieldError {
	switch p.BackgroundType {
	case "student":
		if p.UniversityName == "" {
			errs = append(errs, httpx.FieldError{
				Field: "universityName", Message: "Required when backgroundType = student.",
			})
		}
		if patch.JobExperience != nil {
			errs = append(errs, httpx.FieldError{
				Field: "jobExperience", Message: "Should be empty when backgroundType = student.",
			})
		}
	case "experienced":
		if p.JobExperience == "" {
			errs = append(errs, httpx.FieldError{
				Field: "jobExperience", Message: "Required when backgroundType = experienced.",
			})
		}
		if patch.UniversityName != nil {
			errs = append(errs, httpx.FieldError{
				Field: "universityName", Message: "Should be empty when backgroundType = experienced.",
			})
		}
	}
	return errs
}

// ValidateCreate checks a first write: every required field must be present
// on the merged record. An identity-token email satisfies the email
// requirement (and overrides the body before this is called).
func ValidateCreate(merged Profile, patch Patch, now time.Time) []httpx.FieldError {
	var errs []httpx.FieldError
	required := []struct {
		name  string
		value string
	}{
		{"fullName", merged.FullName},
		{"email", merged.Email},
		{"dob", merged.DOB},
		{"gender", merged.Gender},
		{"country", merged.Country},
		{"city", merged.City},
		{"backgroundType", merged.BackgroundType},
	}
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, httpx.FieldError{Field: f.name, Message: "This field is required."})
		}
	}
	errs = fieldChecks(merged, now, errs)
	return crossField(merged, patch, errs)
}

// ValidateUpdate checks a patch over an existing record: formats for the
// fields the patch touches, plus the cross-field rule on the merge result.
func ValidateUpdate(merged Profile, patch Patch, now time.Time) []httpx.FieldError {
	var errs []httpx.FieldError
	errs = fieldChecks(merged, now, errs)
	return crossField(merged, patch, errs)
}
