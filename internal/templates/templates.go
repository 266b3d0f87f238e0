// Package templates renders reminder bodies from {{placeholder}} templates.
package templates

import (
	"regexp"
)

const (
	FirstReminder   = "Hi {{firstName}}, this is {{shopName}}. Your {{vehicleYear}} {{vehicleMake}} is due for {{serviceType}} on {{dueDate}}. Call us at {{shopPhone}} to schedule. Reply STOP to opt out."
	DueDateReminder = "Hi {{firstName}}, {{shopName}} here. Your {{vehicleYear}} {{vehicleMake}} is due for {{serviceType}} today ({{dueDate}}). Call {{shopPhone}} to book a time. Reply STOP to opt out."
	OverdueReminder = "Hi {{firstName}}, your {{vehicleYear}} {{vehicleMake}} was due for {{serviceType}} on {{dueDate}}. {{shopName}} can fit you in this week, call {{shopPhone}}. Reply STOP to opt out."
)

// Default is a named built-in body.
type Default struct {
	Name string
	Body string
}

// Defaults are ordered by campaign sequence: pre-due, due, overdue.
var Defaults = []Default{
	{Name: "First Reminder", Body: FirstReminder},
	{Name: "Due Date", Body: DueDateReminder},
	{Name: "Overdue", Body: OverdueReminder},
}

var placeholder = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Render substitutes every known placeholder. Unknown ones stay in the output untouched.
func Render(body string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(body, func(token string) string {
		name := placeholder.FindStringSubmatch(token)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

// Fallback picks the built-in body for a rule sequence number.
func Fallback(sequence int) string {
	switch sequence {
	case 2:
		return DueDateReminder
	case 3:
		return OverdueReminder
	default:
		return FirstReminder
	}
}

// Placeholders lists the distinct placeholder names in order of first use.
func Placeholders(body string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(body, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Unknown returns the placeholders of body that vars cannot resolve.
func Unknown(body string, known []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var out []string
	for _, p := range Placeholders(body) {
		if _, ok := set[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
