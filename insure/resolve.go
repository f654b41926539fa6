package insure

import "strings"

// Member is one community roster entry.
type Member struct {
	ID          int64
	Username    string
	DisplayName string
}

// Roster supplies the current community member list. The presentation layer
// owns the live roster; a static implementation backs the CLI and tests.
type Roster interface {
	Members() []Member
}

// StaticRoster is a fixed member list.
type StaticRoster []Member

func (r StaticRoster) Members() []Member { return r }

// ResolveSender maps an extracted free-text sender name to a member. The name
// must be a case-insensitive substring of the member's display name, or
// contain it. First hit wins.
func ResolveSender(name string, members []Member) (Member, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Member{}, false
	}
	for _, m := range members {
		display := strings.ToLower(m.DisplayName)
		if display == "" {
			continue
		}
		if strings.Contains(display, needle) || strings.Contains(needle, display) {
			return m, true
		}
	}
	return Member{}, false
}

// cleanDisplayName strips the trailing "[id]" suffix some display names carry.
func cleanDisplayName(name string) string {
	if i := strings.Index(name, "["); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

// NameMatchesText is the confirmation-direction identity check for a specific
// pending order: exact display-name or username substring, or any name token
// longer than two characters appearing in the text. Deliberately permissive;
// each extraction site logs which event matched so false positives stay
// auditable.
func NameMatchesText(text, username, displayName string) bool {
	lower := strings.ToLower(text)
	display := strings.ToLower(cleanDisplayName(displayName))
	user := strings.ToLower(username)

	if display != "" && strings.Contains(lower, display) {
		return true
	}
	if user != "" && strings.Contains(lower, user) {
		return true
	}
	for _, w := range strings.Fields(display) {
		if len(w) > 2 && strings.Contains(lower, w) {
			return true
		}
	}
	for _, w := range strings.Fields(user) {
		if len(w) > 2 && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
