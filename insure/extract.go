package insure

import (
	"regexp"
	"strconv"
	"strings"
)

// The feed renders the same transfer in multiple prose templates, so the
// extraction here is layered fallbacks rather than a single grammar.
// Precision is not guaranteed; false positives and negatives are an accepted
// tradeoff of reconciling without a payment-rail integration.

const currencyName = "xanax"

var (
	amountPattern = regexp.MustCompile(`(\d+)x?\s*xanax`)
	barePattern   = regexp.MustCompile(`\d+`)
	markupNameRe  = regexp.MustCompile(`from.*?>([^<]+)</a>`)
)

// ExtractOutcome tags the result of one extraction attempt so ambiguous hits
// stay auditable instead of silently defaulting.
type ExtractOutcome int

const (
	NoMatch ExtractOutcome = iota
	Ambiguous
	Matched
)

// AmountResult is the tagged outcome of an amount extraction.
type AmountResult struct {
	Outcome ExtractOutcome
	Amount  int
}

// IsTransfer reports whether text describes a tracked currency transfer
// carrying the kind's tag token. All three signals must appear,
// case-insensitively: the currency name, the tag token, and a transfer phrase.
func IsTransfer(text string, kind CoverageKind) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, currencyName) {
		return false
	}
	if !strings.Contains(lower, strings.ToLower(kind.TagToken())) {
		return false
	}
	return hasTransferPhrase(lower)
}

// hasTransferPhrase handles the feed's phrasing variants: "sent ... to you",
// "You were sent ..." and "received".
func hasTransferPhrase(lower string) bool {
	if strings.Contains(lower, "sent") && strings.Contains(lower, "to you") {
		return true
	}
	return strings.Contains(lower, "you were sent") || strings.Contains(lower, "received")
}

// ExtractAmount pulls the transferred quantity out of free text. Tiers, in
// order: "<N>x Xanax"; the literal "some Xanax" meaning 1; the first bare
// integer anywhere. The bare-integer tier is reported as Ambiguous.
func ExtractAmount(text string) AmountResult {
	lower := strings.ToLower(text)
	if m := amountPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return AmountResult{Outcome: Matched, Amount: n}
		}
		return AmountResult{Outcome: NoMatch}
	}
	if strings.Contains(lower, "some "+currencyName) {
		return AmountResult{Outcome: Matched, Amount: 1}
	}
	if m := barePattern.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			return AmountResult{Outcome: Ambiguous, Amount: n}
		}
	}
	return AmountResult{Outcome: NoMatch}
}

// AmountMatchesTarget checks text for a specific expected amount. Unlike
// ExtractAmount, the bare-integer tier accepts any number in the text equal
// to the target, not just the first.
func AmountMatchesTarget(text string, target int) bool {
	lower := strings.ToLower(text)
	if m := amountPattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		return err == nil && n == target
	}
	if strings.Contains(lower, "some "+currencyName) {
		return target == 1
	}
	for _, m := range barePattern.FindAllString(text, -1) {
		if n, err := strconv.Atoi(m); err == nil && n == target {
			return true
		}
	}
	return false
}

// ExtractSenderName best-effort scans for the transfer's sender: a
// markup-delimited name after "from", else the first word between " from "
// and " with". Returns "" when no name can be isolated.
func ExtractSenderName(text string) string {
	if !strings.Contains(strings.ToLower(text), "from") {
		return ""
	}
	if m := markupNameRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	parts := strings.SplitN(text, " from ", 2)
	if len(parts) < 2 {
		return ""
	}
	namePart := strings.TrimSpace(strings.SplitN(parts[1], " with", 2)[0])
	fields := strings.Fields(namePart)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
