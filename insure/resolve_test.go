package insure

import "testing"

func TestResolveSender(t *testing.T) {
	members := []Member{
		{ID: 1, Username: "alice99", DisplayName: "Alice [1001]"},
		{ID: 2, Username: "bobby", DisplayName: "Big Bob"},
	}

	cases := []struct {
		name   string
		sender string
		wantID int64
		wantOK bool
	}{
		{"substring of display", "Bob", 2, true},
		{"display inside sender", "Alice [1001] the great", 1, true},
		{"case insensitive", "big bob", 2, true},
		{"unknown", "Mallory", 0, false},
		{"empty", "   ", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := ResolveSender(tc.sender, members)
			if ok != tc.wantOK {
				t.Fatalf("ResolveSender(%q) ok = %v, want %v", tc.sender, ok, tc.wantOK)
			}
			if ok && m.ID != tc.wantID {
				t.Fatalf("ResolveSender(%q) = member %d, want %d", tc.sender, m.ID, tc.wantID)
			}
		})
	}
}

func TestNameMatchesText(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		username string
		display  string
		want     bool
	}{
		{"full display substring", "You were sent 4x Xanax from Alice with HJSx", "alice99", "Alice [1001]", true},
		{"username substring", "payment from alice99 arrived", "alice99", "Queen A", true},
		{"display token", "transfer from Bob received", "robert22", "Big Bob [55]", true},
		{"short tokens ignored", "an ax fell", "zz", "Ax An", false},
		{"no overlap", "payment from Mallory", "alice99", "Alice", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NameMatchesText(tc.text, tc.username, tc.display); got != tc.want {
				t.Fatalf("NameMatchesText(%q, %q, %q) = %v, want %v", tc.text, tc.username, tc.display, got, tc.want)
			}
		})
	}
}

func TestCleanDisplayName(t *testing.T) {
	if got := cleanDisplayName("Alice [1001]"); got != "Alice" {
		t.Fatalf("got %q, want %q", got, "Alice")
	}
	if got := cleanDisplayName("Plain"); got != "Plain" {
		t.Fatalf("got %q, want %q", got, "Plain")
	}
}
