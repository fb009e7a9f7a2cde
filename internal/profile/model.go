// Package profile manages the per-user profile record: create and patch
// writes with field-level validation and the student/experienced
// cross-field rule.
package profile

import (
	"encoding/json"
	"strings"
)

// Profile is the stored record. Optional fields marshal away when empty so
// the stored item carries only what the user provided.
type Profile struct {
	UserID         string `json:"userId" dynamodbav:"userId"`
	FullName       string `json:"fullName,omitempty" dynamodbav:"fullName,omitempty"`
	Email          string `json:"email,omitempty" dynamodbav:"email,omitempty"`
	DOB            string `json:"dob,omitempty" dynamodbav:"dob,omitempty"`
	Gender         string `json:"gender,omitempty" dynamodbav:"gender,omitempty"`
	Country        string `json:"country,omitempty" dynamodbav:"country,omitempty"`
	City           string `json:"city,omitempty" dynamodbav:"city,omitempty"`
	Role           string `json:"role,omitempty" dynamodbav:"role,omitempty"`
	BackgroundType string `json:"backgroundType,omitempty" dynamodbav:"backgroundType,omitempty"`
	UniversityName string `json:"universityName,omitempty" dynamodbav:"universityName,omitempty"`
	JobExperience  string `json:"jobExperience,omitempty" dynamodbav:"jobExperience,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty" dynamodbav:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
}

// Patch is the parsed request body: nil means "not supplied". Empty strings
// are dropped during parsing, matching the UI's habit of sending blanks.
type Patch struct {
	FullName       *string
	Email          *string
	DOB            *string
	Gender         *string
	Country        *string
	City           *string
	Role           *string
	BackgroundType *string
	UniversityName *string
	JobExperience  *string
}

// fieldAliases maps each canonical field to the spellings clients send.
var fieldAliases = map[string][]string{
	"fullName":       {"fullname", "full_name", "full-name"},
	"email":          {"email"},
	"dob":            {"dob"},
	"gender":         {"gender"},
	"country":        {"country"},
	"city":           {"city"},
	"role":           {"role"},
	"backgroundType": {"backgroundtype", "background_type", "background-type"},
	"universityName": {"universityname", "university_name", "university-name"},
	"jobExperience":  {"jobexperience", "job_experience", "job-experience"},
}

// ParsePatch reads a PUT /profile body. Keys are matched case-insensitively
// across alias spellings; any userId in the payload is discarded.
func ParsePatch(body string) (Patch, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil || raw == nil {
		return Patch{}, false
	}

	lower := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			lower[strings.ToLower(k)] = strings.TrimSpace(s)
		}
	}

	pick := func(field string) *string {
		for _, alias := range fieldAliases[field] {
			if v, ok := lower[alias]; ok && v != "" {
				return &v
			}
		}
		return nil
	}

	return Patch{
		FullName:       pick("fullName"),
		Email:          pick("email"),
		DOB:            pick("dob"),
		Gender:         pick("gender"),
		Country:        pick("country"),
		City:           pick("city"),
		Role:           pick("role"),
		BackgroundType: pick("backgroundType"),
		UniversityName: pick("universityName"),
		JobExperience:  pick("jobExperience"),
	}, true
}

// Apply merges the patch over an existing record (zero Profile when this is
// a create) and enforces the background rule on the result: a student
// profile drops jobExperience, an experienced one drops universityName.
func (p Patch) Apply(existing Profile) Profile {
	out := existing
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&out.FullName, p.FullName)
	set(&out.Email, p.Email)
	set(&out.DOB, p.DOB)
	set(&out.Gender, p.Gender)
	set(&out.Country, p.Country)
	set(&out.City, p.City)
	set(&out.Role, p.Role)
	set(&out.BackgroundType, p.BackgroundType)
	set(&out.UniversityName, p.UniversityName)
	set(&out.JobExperience, p.JobExperience)

	switch out.BackgroundType {
	case "student":
		out.JobExperience = ""
	case "experienced":
		out.UniversityName = ""
	}
	return out
}
