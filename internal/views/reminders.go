package views

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/jobdeck/backend/internal/httpx"
)

const (
	minDays = 1
	maxDays = 60
)

// ReminderRow is one upcoming due date, projected to the fields the
// reminder list renders. DueDate is the calendar day in UTC.
type ReminderRow struct {
	CardID  string `json:"cardId"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Status  string `json:"status"`
	DueDate string `json:"dueDate"`
}

func clampDays(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || raw == "" {
		n = def
	}
	if n < minDays {
		n = minDays
	}
	if n > maxDays {
		n = maxDays
	}
	return n
}

// parseDue interprets a stored dueDate: a bare calendar day is UTC
// midnight, anything else must be a full timestamp.
func parseDue(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if len(s) == 10 {
		t, err := time.Parse("2006-01-02", s)
		return t, err == nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func statusSet(raw string) map[string]bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	set := map[string]bool{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			set[s] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// Reminders handles GET /reminders: cards whose due date falls inside
// [today, today+days], both ends inclusive, in UTC.
func (h *Handler) Reminders(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if h.Table == "" {
		return configError()
	}
	days := clampDays(r.Query["days"], h.DefaultDays)
	wanted := statusSet(r.Query["status"])

	all, err := h.loadCards(ctx, r.UserID)
	if err != nil {
		h.Log.Error("reminders load failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}

	now := h.clock().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, days)

	type dated struct {
		row ReminderRow
		at  time.Time
	}
	var due []dated
	for _, c := range all {
		at, ok := parseDue(c.DueDate)
		if !ok {
			continue
		}
		if wanted != nil && !wanted[strings.ToLower(c.Status)] {
			continue
		}
		if at.Before(today) || at.After(end) {
			continue
		}
		due = append(due, dated{
			at: at,
			row: ReminderRow{
				CardID:  c.CardID,
				Title:   c.Title,
				Company: c.Company,
				Status:  c.Status,
				DueDate: at.UTC().Format("2006-01-02"),
			},
		})
	}
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })

	items := make([]ReminderRow, 0, len(due))
	for _, d := range due {
		items = append(items, d.row)
	}
	return httpx.JSON(http.StatusOK, map[string]any{
		"ok":    true,
		"count": len(items),
		"items": items,
	})
}
