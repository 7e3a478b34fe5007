package services

import (
	"fmt"
	"strings"
	"unicode"
)

// Membership ids follow RMAS/BIH/<DISTRICT-CODE>/<YEAR>/<SERIAL> with the
// serial zero-padded to three digits and monotonically increasing per
// district+year.
const (
	membershipIDPrefix = "RMAS"
	stateCode          = "BIH"
)

// DistrictCode derives the three-letter district code: first three letters of
// the district name, uppercased, non-letters skipped, padded with X when the
// name is too short.
func DistrictCode(district string) string {
	var letters []rune
	for _, r := range strings.ToUpper(strings.TrimSpace(district)) {
		if unicode.IsLetter(r) {
			letters = append(letters, r)
			if len(letters) == 3 {
				break
			}
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}

// FormatMembershipID renders the canonical membership id for a district, year,
// and already-reserved serial.
func FormatMembershipID(district string, year int, serial int) string {
	return fmt.Sprintf("%s/%s/%s/%d/%03d", membershipIDPrefix, stateCode, DistrictCode(district), year, serial)
}
