package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Regions tried when parsing a number without a country prefix. The club is
// Norwegian; neighbours and tourists cover the rest.
var supportedRegions = []string{
	"NO",
	"SE",
	"DK",
	"US",
}

// NormalizePhone parses a phone number and returns it in E.164 form, or the
// empty string when the number cannot be parsed in any supported region.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
