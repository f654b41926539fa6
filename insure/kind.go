package insure

import "time"

// CoverageKind identifies one of the two insurable categories.
type CoverageKind string

const (
	// KindXAN is duration-based Xanax overdose coverage.
	KindXAN CoverageKind = "XAN"
	// KindEXTC is jump-count-based ecstasy overdose coverage.
	KindEXTC CoverageKind = "EXTC"
)

// EXTC coverage always runs a fixed 2 hours regardless of jump count.
const extcCoverageHours = 2

// TagToken returns the transfer message code a payer must include so the
// payment's purpose is identifiable in the activity feed.
func (k CoverageKind) TagToken() string {
	if k == KindEXTC {
		return "HJSe"
	}
	return "HJSx"
}

// CoverageLength returns the active duration for the given parameter:
// hours for XAN, the fixed constant for EXTC.
func (k CoverageKind) CoverageLength(hours int) time.Duration {
	if k == KindEXTC {
		return extcCoverageHours * time.Hour
	}
	return time.Duration(hours) * time.Hour
}
