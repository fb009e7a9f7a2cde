package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/jobdeck/backend/internal/httpx"
	"github.com/jobdeck/backend/internal/storage"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newHandler(store storage.Store) *Handler {
	return &Handler{
		Store: store,
		Table: "profiles-test",
		Log:   zap.NewNop(),
		Now:   func() time.Time { return testNow },
	}
}

func body(t *testing.T, resp events.APIGatewayV2HTTPResponse) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &m); err != nil {
		t.Fatalf("bad body %q: %v", resp.Body, err)
	}
	return m
}

func errorFields(t *testing.T, resp events.APIGatewayV2HTTPResponse) map[string]bool {
	t.Helper()
	fields := map[string]bool{}
	errs, _ := body(t, resp)["errors"].([]any)
	for _, e := range errs {
		fields[e.(map[string]any)["field"].(string)] = true
	}
	return fields
}

const validCreate = `{
	"fullName":"Ada Lovelace",
	"email":"ada@example.com",
	"dob":"1990-12-10",
	"gender":"Female",
	"country":"UK",
	"city":"London",
	"backgroundType":"experienced",
	"jobExperience":"12 years of scientific computing"
}`

func TestPutCreateHappyPath(t *testing.T) {
	h := newHandler(storage.NewMemory())
	resp := h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: validCreate})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", resp.StatusCode, resp.Body)
	}
	p, _ := body(t, resp)["profile"].(map[string]any)
	if p["fullName"] != "Ada Lovelace" || p["userId"] != "u1" {
		t.Fatalf("stored profile mismatch: %v", p)
	}
	if p["createdAt"] == "" || p["createdAt"] != p["updatedAt"] {
		t.Fatalf("create timestamps wrong: %v / %v", p["createdAt"], p["updatedAt"])
	}
}

func TestPutCreateRequiresAllFields(t *testing.T) {
	h := newHandler(storage.NewMemory())
	resp := h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: `{"fullName":"Ada Lovelace"}`})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	fields := errorFields(t, resp)
	for _, want := range []string{"email", "dob", "gender", "country", "city", "backgroundType"} {
		if !fields[want] {
			t.Fatalf("expected a required-field error for %q, got %v", want, fields)
		}
	}
	if fields["role"] {
		t.Fatalf("role is a legacy alias and must not be required: %v", fields)
	}
}

func TestPutCreateFieldFormats(t *testing.T) {
	cases := []struct {
		name   string
		mutate map[string]string
		field  string
	}{
		{"bad email", map[string]string{"email": "not-an-email"}, "email"},
		{"bad dob shape", map[string]string{"dob": "12/10/1990"}, "dob"},
		{"impossible date", map[string]string{"dob": "1990-02-31"}, "dob"},
		{"too young", map[string]string{"dob": "2020-01-01"}, "dob"},
		{"ancient", map[string]string{"dob": "1800-01-01"}, "dob"},
		{"bad gender", map[string]string{"gender": "unknown"}, "gender"},
		{"bad role", map[string]string{"role": "wizard"}, "role"},
		{"bad background", map[string]string{"backgroundType": "retired"}, "backgroundType"},
		{"short name", map[string]string{"fullName": "A"}, "fullName"},
		{"short city", map[string]string{"city": "X"}, "city"},
	}
	for _, tc := range cases {
		var base map[string]any
		if err := json.Unmarshal([]byte(validCreate), &base); err != nil {
			t.Fatalf("%s: bad fixture: %v", tc.name, err)
		}
		for k, v := range tc.mutate {
			base[k] = v
		}
		raw, _ := json.Marshal(base)

		h := newHandler(storage.NewMemory())
		resp := h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: string(raw)})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body %s", tc.name, resp.StatusCode, resp.Body)
		}
		if !errorFields(t, resp)[tc.field] {
			t.Fatalf("%s: expected an error on %q, got %s", tc.name, tc.field, resp.Body)
		}
	}
}

func TestCrossFieldRuleOnCreate(t *testing.T) {
	h := newHandler(storage.NewMemory())
	resp := h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: `{
		"fullName":"Ada Lovelace","email":"ada@example.com","dob":"1990-12-10",
		"gender":"Female","country":"UK","city":"London","backgroundType":"student"
	}`})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("student without universityName must fail, got %d", resp.StatusCode)
	}
	if !errorFields(t, resp)["universityName"] {
		t.Fatalf("expected universityName error: %s", resp.Body)
	}
}

func TestTokenEmailOverridesBody(t *testing.T) {
	h := newHandler(storage.NewMemory())
	resp := h.Put(context.Background(), &httpx.Request{
		UserID:     "u1",
		TokenEmail: "verified@example.com",
		Body:       validCreate,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", resp.StatusCode, resp.Body)
	}
	p, _ := body(t, resp)["profile"].(map[string]any)
	if p["email"] != "verified@example.com" {
		t.Fatalf("token email must win, got %v", p["email"])
	}
}

func TestGetMissingProfileIsNull(t *testing.T) {
	h := newHandler(storage.NewMemory())
	resp := h.Get(context.Background(), &httpx.Request{UserID: "u1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	b := body(t, resp)
	if v, present := b["profile"]; !present || v != nil {
		t.Fatalf("expected profile:null, got %v", b)
	}
}

func TestUpdatePatchSemantics(t *testing.T) {
	h := newHandler(storage.NewMemory())
	if resp := h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: validCreate}); resp.StatusCode != http.StatusOK {
		t.Fatalf("seed create failed: %s", resp.Body)
	}

	h.Now = func() time.Time { return testNow.Add(time.Hour) }
	resp := h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: `{"city":"Manchester"}`})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d body %s", resp.StatusCode, resp.Body)
	}
	p, _ := body(t, resp)["profile"].(map[string]any)
	if p["city"] != "Manchester" {
		t.Fatalf("patched field not applied: %v", p["city"])
	}
	if p["fullName"] != "Ada Lovelace" {
		t.Fatalf("unpatched field lost: %v", p["fullName"])
	}
	if p["updatedAt"].(string) <= p["createdAt"].(string) {
		t.Fatalf("updatedAt did not advance: %v", p)
	}
}

func TestUpdateBackgroundSwitchDropsCounterpart(t *testing.T) {
	h := newHandler(storage.NewMemory())
	h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: validCreate})

	resp := h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: `{
		"backgroundType":"student","universityName":"Cambridge"
	}`})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("switch to student: expected 200, got %d body %s", resp.StatusCode, resp.Body)
	}
	p, _ := body(t, resp)["profile"].(map[string]any)
	if p["universityName"] != "Cambridge" {
		t.Fatalf("universityName not set: %v", p)
	}
	if _, present := p["jobExperience"]; present {
		t.Fatalf("jobExperience must be dropped when switching to student: %v", p)
	}
}

func TestUpdateForbidsConflictingField(t *testing.T) {
	h := newHandler(storage.NewMemory())
	h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: validCreate})

	// record is experienced; supplying universityName in the patch conflicts
	resp := h.Put(context.Background(), &httpx.Request{UserID: "u1", Body: `{"universityName":"Cambridge"}`})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body %s", resp.StatusCode, resp.Body)
	}
	if !errorFields(t, resp)["universityName"] {
		t.Fatalf("expected universityName conflict error: %s", resp.Body)
	}
}

func TestParsePatchAliases(t *testing.T) {
	patch, ok := ParsePatch(`{"full_name":"Ada Lovelace","BACKGROUND_TYPE":"student","userId":"attacker"}`)
	if !ok {
		t.Fatal("parse failed")
	}
	if patch.FullName == nil || *patch.FullName != "Ada Lovelace" {
		t.Fatalf("snake_case alias not honored: %v", patch.FullName)
	}
	if patch.BackgroundType == nil || *patch.BackgroundType != "student" {
		t.Fatalf("case-insensitive alias not honored: %v", patch.BackgroundType)
	}
}

func TestValidateAgeBoundaries(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for dob, wantOK := range map[string]bool{
		"2012-06-01": true,  // turns 13 today
		"2012-06-02": false, // 13 tomorrow
		"1905-06-01": true,  // 120 today
		"1904-05-31": false, // 121
	} {
		d, ok := parseDOB(dob)
		if !ok {
			t.Fatalf("dob %s should parse", dob)
		}
		got := age(d, now)
		inRange := got >= minAge && got <= maxAge
		if inRange != wantOK {
			t.Fatalf("dob %s: age %d, expected in-range=%v", dob, got, wantOK)
		}
	}
}
