package locations

import (
	"sort"
	"strings"
)

// DefaultSubdomain serves every country without a dedicated region.
const DefaultSubdomain = "ecloud"

// Location maps a dialling code to the cloud region that hosts its accounts.
type Location struct {
	Country   string `json:"country"`
	ISO       string `json:"iso"`
	PhoneCode string `json:"phone_code"`
	Subdomain string `json:"subdomain"`
}

var table = []Location{
	{Country: "Australia", ISO: "AU", PhoneCode: "61", Subdomain: "aucloud"},
	{Country: "New Zealand", ISO: "NZ", PhoneCode: "64", Subdomain: "aucloud"},
	{Country: "United States", ISO: "US", PhoneCode: "1", Subdomain: "ucloud"},
	{Country: "Singapore", ISO: "SG", PhoneCode: "65", Subdomain: "scloud"},
	{Country: "Malaysia", ISO: "MY", PhoneCode: "60", Subdomain: "scloud"},
	{Country: "Japan", ISO: "JP", PhoneCode: "81", Subdomain: "jcloud"},
	{Country: "China", ISO: "CN", PhoneCode: "86", Subdomain: "ccloud"},
	{Country: "Russia", ISO: "RU", PhoneCode: "7", Subdomain: "rucloud"},
	{Country: "Israel", ISO: "IL", PhoneCode: "972", Subdomain: DefaultSubdomain},
	{Country: "United Kingdom", ISO: "GB", PhoneCode: "44", Subdomain: DefaultSubdomain},
	{Country: "Germany", ISO: "DE", PhoneCode: "49", Subdomain: DefaultSubdomain},
	{Country: "France", ISO: "FR", PhoneCode: "33", Subdomain: DefaultSubdomain},
	{Country: "Spain", ISO: "ES", PhoneCode: "34", Subdomain: DefaultSubdomain},
	{Country: "Italy", ISO: "IT", PhoneCode: "39", Subdomain: DefaultSubdomain},
	{Country: "Netherlands", ISO: "NL", PhoneCode: "31", Subdomain: DefaultSubdomain},
	{Country: "Switzerland", ISO: "CH", PhoneCode: "41", Subdomain: DefaultSubdomain},
}

// Lookup finds the location for a dialling code such as "61" or "+61".
func Lookup(phoneCode string) (Location, bool) {
	code := strings.TrimPrefix(strings.TrimSpace(phoneCode), "+")
	for _, l := range table {
		if l.PhoneCode == code {
			return l, true
		}
	}
	return Location{}, false
}

// SubdomainFor returns the region for a dialling code, falling back to
// DefaultSubdomain.
func SubdomainFor(phoneCode string) string {
	if l, ok := Lookup(phoneCode); ok {
		return l.Subdomain
	}
	return DefaultSubdomain
}

// Countries lists the known locations sorted by country name.
func Countries() []Location {
	out := append([]Location(nil), table...)
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}
