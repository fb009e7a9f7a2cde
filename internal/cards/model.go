// Package cards implements the job-card store: the per-user card schema,
// input normalization, server-side filtering, and the CRUD handlers.
package cards

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ReservedPrefix marks non-card items co-located in the cards partition.
// Every card-listing path filters sort keys carrying it.
const ReservedPrefix = "SETTINGS#"

// IsReserved reports whether a sort key addresses a non-card item.
func IsReserved(cardID string) bool {
	return strings.HasPrefix(cardID, ReservedPrefix)
}

// Card is the stored shape of one tracked job application. Tags are always
// a string slice and salary is nil, float64 or string; request-boundary
// laxity (CSV tags, numeric-string salaries) is normalized before a Card
// is built.
type Card struct {
	UserID       string   `json:"userId" dynamodbav:"userId"`
	CardID       string   `json:"cardId" dynamodbav:"cardId"`
	Title        string   `json:"title" dynamodbav:"title"`
	Company      string   `json:"company" dynamodbav:"company"`
	Location     string   `json:"location" dynamodbav:"location"`
	Link         string   `json:"link" dynamodbav:"link"`
	Status       string   `json:"status" dynamodbav:"status"`
	DueDate      string   `json:"dueDate" dynamodbav:"dueDate"`
	Notes        string   `json:"notes" dynamodbav:"notes"`
	Tags         []string `json:"tags" dynamodbav:"tags"`
	ContactName  string   `json:"contactName" dynamodbav:"contactName"`
	ContactEmail string   `json:"contactEmail" dynamodbav:"contactEmail"`
	ContactPhone string   `json:"contactPhone" dynamodbav:"contactPhone"`
	Salary       any      `json:"salary" dynamodbav:"salary"`
	ReferredBy   string   `json:"referredBy" dynamodbav:"referredBy"`
	Source       string   `json:"source" dynamodbav:"source"`
	Flagged      bool     `json:"flagged" dynamodbav:"flagged"`
	CreatedAt    string   `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt    string   `json:"updatedAt" dynamodbav:"updatedAt"`
}

// writable enumerates the attributes a PUT may touch. userId, cardId and
// createdAt are never in this list.
var writable = []string{
	"title", "company", "location", "link", "status", "dueDate", "notes",
	"tags", "contactName", "contactEmail", "contactPhone", "flagged",
	"salary", "referredBy", "source",
}

// normalizeTags accepts a JSON array of strings or a comma-separated string
// and returns a clean slice: entries trimmed, empties dropped.
func normalizeTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		out := make([]string, 0, len(arr))
		for _, t := range arr {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	var csv string
	if err := json.Unmarshal(raw, &csv); err == nil {
		out := []string{}
		for _, t := range strings.Split(csv, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	return []string{}
}

// normalizeSalary collapses empty and null to nil, parses numeric strings
// to numbers, and keeps anything else as the raw string.
func normalizeSalary(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// jsonString unmarshals raw as a string, tolerating absence.
func jsonString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func jsonBool(raw json.RawMessage) bool {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

// statusValue reads the status from a payload, honoring the legacy `stage`
// alias some clients send, lowercased. Empty stays empty.
func statusValue(body map[string]json.RawMessage) string {
	s := jsonString(body["status"])
	if s == "" {
		s = jsonString(body["stage"])
	}
	return strings.ToLower(s)
}

// statusFrom is the create-time variant: an absent or empty status defaults
// to "saved".
func statusFrom(body map[string]json.RawMessage) string {
	if s := statusValue(body); s != "" {
		return s
	}
	return "saved"
}
