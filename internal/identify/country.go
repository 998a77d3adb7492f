package identify

import (
	"sort"
	"strings"
)

// Country is an entry of the country selector. CallingCodes may be empty for
// territories without their own numbering plan.
type Country struct {
	Alpha2       string   `json:"alpha2"`
	Alpha3       string   `json:"alpha3"`
	Name         string   `json:"name"`
	Emoji        string   `json:"emoji"`
	CallingCodes []string `json:"countryCallingCodes"`
}

// DialCode returns the first calling code, or "" when the country has none.
func (c Country) DialCode() string {
	if len(c.CallingCodes) == 0 {
		return ""
	}
	return c.CallingCodes[0]
}

// DefaultCountry is preselected on a fresh login page.
const DefaultCountry = "IND"

var countries = []Country{
	{"AR", "ARG", "Argentina", "🇦🇷", []string{"+54"}},
	{"AU", "AUS", "Australia", "🇦🇺", []string{"+61"}},
	{"AT", "AUT", "Austria", "🇦🇹", []string{"+43"}},
	{"BD", "BGD", "Bangladesh", "🇧🇩", []string{"+880"}},
	{"BE", "BEL", "Belgium", "🇧🇪", []string{"+32"}},
	{"BV", "BVT", "Bouvet Island", "🇧🇻", nil},
	{"BR", "BRA", "Brazil", "🇧🇷", []string{"+55"}},
	{"CA", "CAN", "Canada", "🇨🇦", []string{"+1"}},
	{"CN", "CHN", "China", "🇨🇳", []string{"+86"}},
	{"DK", "DNK", "Denmark", "🇩🇰", []string{"+45"}},
	{"DO", "DOM", "Dominican Republic", "🇩🇴", []string{"+1 809", "+1 829", "+1 849"}},
	{"EG", "EGY", "Egypt", "🇪🇬", []string{"+20"}},
	{"FI", "FIN", "Finland", "🇫🇮", []string{"+358"}},
	{"FR", "FRA", "France", "🇫🇷", []string{"+33"}},
	{"DE", "DEU", "Germany", "🇩🇪", []string{"+49"}},
	{"IN", "IND", "India", "🇮🇳", []string{"+91"}},
	{"ID", "IDN", "Indonesia", "🇮🇩", []string{"+62"}},
	{"IE", "IRL", "Ireland", "🇮🇪", []string{"+353"}},
	{"IT", "ITA", "Italy", "🇮🇹", []string{"+39"}},
	{"JP", "JPN", "Japan", "🇯🇵", []string{"+81"}},
	{"KE", "KEN", "Kenya", "🇰🇪", []string{"+254"}},
	{"LB", "LBN", "Lebanon", "🇱🇧", []string{"+961"}},
	{"MX", "MEX", "Mexico", "🇲🇽", []string{"+52"}},
	{"NL", "NLD", "Netherlands", "🇳🇱", []string{"+31"}},
	{"NZ", "NZL", "New Zealand", "🇳🇿", []string{"+64"}},
	{"NG", "NGA", "Nigeria", "🇳🇬", []string{"+234"}},
	{"NO", "NOR", "Norway", "🇳🇴", []string{"+47"}},
	{"PK", "PAK", "Pakistan", "🇵🇰", []string{"+92"}},
	{"PH", "PHL", "Philippines", "🇵🇭", []string{"+63"}},
	{"PL", "POL", "Poland", "🇵🇱", []string{"+48"}},
	{"PT", "PRT", "Portugal", "🇵🇹", []string{"+351"}},
	{"SA", "SAU", "Saudi Arabia", "🇸🇦", []string{"+966"}},
	{"SG", "SGP", "Singapore", "🇸🇬", []string{"+65"}},
	{"ZA", "ZAF", "South Africa", "🇿🇦", []string{"+27"}},
	{"KR", "KOR", "South Korea", "🇰🇷", []string{"+82"}},
	{"ES", "ESP", "Spain", "🇪🇸", []string{"+34"}},
	{"LK", "LKA", "Sri Lanka", "🇱🇰", []string{"+94"}},
	{"SE", "SWE", "Sweden", "🇸🇪", []string{"+46"}},
	{"CH", "CHE", "Switzerland", "🇨🇭", []string{"+41"}},
	{"TR", "TUR", "Turkey", "🇹🇷", []string{"+90"}},
	{"AE", "ARE", "United Arab Emirates", "🇦🇪", []string{"+971"}},
	{"GB", "GBR", "United Kingdom", "🇬🇧", []string{"+44"}},
	{"US", "USA", "United States", "🇺🇸", []string{"+1"}},
	{"VN", "VNM", "Vietnam", "🇻🇳", []string{"+84"}},
}

var countryIndex = func() map[string]int {
	m := make(map[string]int, len(countries))
	for i, c := range countries {
		m[c.Alpha3] = i
		m[c.Alpha2] = i
	}
	return m
}()

// Countries returns a copy of the catalog sorted by name.
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupCountry finds a country by its alpha-3 or alpha-2 code, case-insensitively.
func LookupCountry(code string) (Country, bool) {
	i, ok := countryIndex[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, false
	}
	return countries[i], true
}

// SearchCountries filters the catalog the way the command palette does: a
// case-insensitive substring match on the name, the codes and the calling codes.
// An empty query returns everything.
func SearchCountries(query string) []Country {
	q := strings.ToLower(strings.TrimSpace(query))
	all := Countries()
	if q == "" {
		return all
	}
	out := all[:0]
	for _, c := range all {
		if matchesCountry(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func matchesCountry(c Country, q string) bool {
	if strings.Contains(strings.ToLower(c.Name), q) ||
		strings.ToLower(c.Alpha2) == q ||
		strings.ToLower(c.Alpha3) == q {
		return true
	}
	for _, cc := range c.CallingCodes {
		if strings.Contains(cc, q) {
			return true
		}
	}
	return false
}
