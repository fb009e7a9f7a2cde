package cards

import "strings"

// Filter is the optional server-side predicate shared by the list, stats
// and reminder paths. All matching is case-insensitive.
type Filter struct {
	Q        string
	Status   string
	Company  string
	Title    string
	Location string
	Tag      string
}

// FilterFromQuery builds a Filter from request query parameters.
func FilterFromQuery(q map[string]string) Filter {
	get := func(k string) string {
		return strings.ToLower(strings.TrimSpace(q[k]))
	}
	return Filter{
		Q:        get("q"),
		Status:   get("status"),
		Company:  get("company"),
		Title:    get("title"),
		Location: get("location"),
		Tag:      get("tag"),
	}
}

// Match reports whether the card passes every set predicate. The free-text
// term is a substring match over title, company, location and the joined
// tag list.
func (f Filter) Match(c Card) bool {
	eq := func(have, want string) bool {
		return want == "" || strings.ToLower(have) == want
	}
	if !eq(c.Status, f.Status) || !eq(c.Company, f.Company) ||
		!eq(c.Title, f.Title) || !eq(c.Location, f.Location) {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range c.Tags {
			if strings.ToLower(t) == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Q != "" {
		hay := strings.ToLower(strings.Join([]string{
			c.Title, c.Company, c.Location, strings.Join(c.Tags, " "),
		}, " "))
		if !strings.Contains(hay, f.Q) {
			return false
		}
	}
	return true
}
