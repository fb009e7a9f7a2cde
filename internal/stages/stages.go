// Package stages manages the per-user ordered stage list for the board.
// The config lives in the cards partition under a reserved sort key; GET
// before the first write answers with built-in defaults without persisting.
package stages

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// SortKey is the canonical sort key of the stage-config item.
const SortKey = "SETTINGS#stages"

// Stage is one column of the board.
type Stage struct {
	Key   string  `json:"key" dynamodbav:"key"`
	Name  string  `json:"name" dynamodbav:"name"`
	Color *string `json:"color" dynamodbav:"color"`
	Limit *int    `json:"limit" dynamodbav:"limit"`
}

// Config is the stored stage-config item.
type Config struct {
	UserID    string  `json:"userId" dynamodbav:"userId"`
	CardID    string  `json:"cardId" dynamodbav:"cardId"`
	Stages    []Stage `json:"stages" dynamodbav:"stages"`
	UpdatedAt string  `json:"updatedAt" dynamodbav:"updatedAt"`
}

var keyRx = regexp.MustCompile(`^[a-z0-9-]+$`)

// Defaults returns the built-in stage list. The storage layer never sees
// these; they are projected into GET responses for users who have not
// saved a config yet.
func Defaults() []Stage {
	return []Stage{
		{Key: "saved", Name: "Saved"},
		{Key: "applied", Name: "Applied"},
		{Key: "screening", Name: "Screening"},
		{Key: "final", Name: "Final"},
		{Key: "closed", Name: "Closed"},
	}
}

// stageInput is the lax request shape: limit may arrive fractional and is
// floored before validation.
type stageInput struct {
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Color *string  `json:"color"`
	Limit *float64 `json:"limit"`
}

type putPayload struct {
	Stages []stageInput `json:"stages"`
}

// Parse validates a PUT /settings/stages body and returns the normalized
// list: keys trimmed and lowercased, names trimmed, limits floored. The
// error message names the failing row.
func Parse(body string) ([]Stage, error) {
	var payload putPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("Invalid JSON")
	}
	if len(payload.Stages) == 0 {
		return nil, fmt.Errorf("stages must be a non-empty list")
	}

	out := make([]Stage, 0, len(payload.Stages))
	seen := make(map[string]bool, len(payload.Stages))
	for i, in := range payload.Stages {
		key := strings.ToLower(strings.TrimSpace(in.Key))
		name := strings.TrimSpace(in.Name)
		switch {
		case key == "":
			return nil, fmt.Errorf("stages[%d]: key is required", i)
		case !keyRx.MatchString(key):
			return nil, fmt.Errorf("stages[%d]: key must match ^[a-z0-9-]+$", i)
		case seen[key]:
			return nil, fmt.Errorf("stages[%d]: duplicate key %q", i, key)
		case name == "":
			return nil, fmt.Errorf("stages[%d]: name is required", i)
		}
		seen[key] = true

		stage := Stage{Key: key, Name: name, Color: in.Color}
		if in.Limit != nil {
			limit := int(math.Floor(*in.Limit))
			if limit < 1 {
				return nil, fmt.Errorf("stages[%d]: limit must be a positive integer", i)
			}
			stage.Limit = &limit
		}
		out = append(out, stage)
	}
	return out, nil
}
