package insure

import "testing"

func TestIsTransfer(t *testing.T) {
	cases := []struct {
		name string
		text string
		kind CoverageKind
		want bool
	}{
		{"xan sent to you", "Someone sent 4x Xanax to you with message HJSx", KindXAN, true},
		{"xan you were sent", "You were sent some Xanax from Alice with HJSx attached", KindXAN, true},
		{"xan received", "received 2 Xanax from Bob (HJSx)", KindXAN, true},
		{"extc tag", "You were sent 1 Xanax from Carol with HJSe", KindEXTC, true},
		{"wrong tag for kind", "You were sent 4x Xanax from Alice with HJSe", KindXAN, false},
		{"no currency", "You were sent 500 cash from Alice with HJSx", KindXAN, false},
		{"no transfer phrase", "Alice used 4x Xanax HJSx", KindXAN, false},
		{"sent without to you", "Alice sent mail about Xanax HJSx", KindXAN, false},
		{"case insensitive", "YOU WERE SENT 4X XANAX FROM ALICE WITH HJSX", KindXAN, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransfer(tc.text, tc.kind); got != tc.want {
				t.Fatalf("IsTransfer(%q, %s) = %v, want %v", tc.text, tc.kind, got, tc.want)
			}
		})
	}
}

func TestExtractAmount(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		outcome ExtractOutcome
		amount  int
	}{
		{"count with x", "You were sent 4x Xanax from Alice with HJSx", Matched, 4},
		{"count without x", "You were sent 7 Xanax from Alice", Matched, 7},
		{"some means one", "You were sent some Xanax from Alice", Matched, 1},
		{"bare integer is ambiguous", "Alice paid 3 for coverage", Ambiguous, 3},
		{"zero count no fallthrough", "You were sent 0 Xanax plus 5 extra", NoMatch, 0},
		{"nothing numeric", "You were sent some cash from Alice", NoMatch, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractAmount(tc.text)
			if got.Outcome != tc.outcome || got.Amount != tc.amount {
				t.Fatalf("ExtractAmount(%q) = {%v %d}, want {%v %d}", tc.text, got.Outcome, got.Amount, tc.outcome, tc.amount)
			}
		})
	}
}

func TestAmountMatchesTarget(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		target int
		want   bool
	}{
		{"exact regex", "You were sent 4x Xanax from Alice", 4, true},
		{"regex mismatch", "You were sent 4x Xanax from Alice", 2, false},
		{"some needs one", "You were sent some Xanax from Alice", 1, true},
		{"some is not two", "You were sent some Xanax from Alice", 2, false},
		{"bare any position", "payment of 10 then 3 more", 3, true},
		{"bare no match", "payment of 10 then 3 more", 5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AmountMatchesTarget(tc.text, tc.target); got != tc.want {
				t.Fatalf("AmountMatchesTarget(%q, %d) = %v, want %v", tc.text, tc.target, got, tc.want)
			}
		})
	}
}

func TestExtractSenderName(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"markup name", `You were sent 4x Xanax from <a href="/profile/123">Alice</a> with HJSx`, "Alice"},
		{"plain between from and with", "You were sent 4x Xanax from Alice with HJSx", "Alice"},
		{"no from", "You were sent 4x Xanax with HJSx", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractSenderName(tc.text); got != tc.want {
				t.Fatalf("ExtractSenderName(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
