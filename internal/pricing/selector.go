// Package pricing picks the country price tier that applies to a shipping address.
package pricing

import (
	"strings"
	"unicode"

	"opsboard/internal/domain"
)

// keywords are matched as whole words against the normalized address. The
// first region with a hit wins.
var keywords = []struct {
	region domain.RegionTag
	words  []string
}{
	{domain.RegionDomestic, []string{
		"united states", "usa", "u s a", "u s",
		// state names that would otherwise hit a foreign keyword
		"new mexico",
	}},
	{domain.RegionCanada, []string{
		"canada", "ontario", "quebec", "british columbia", "alberta", "manitoba",
		"saskatchewan", "nova scotia", "new brunswick", "newfoundland",
		"prince edward island", "toronto", "montreal", "vancouver", "calgary", "ottawa",
	}},
	{domain.RegionAustralia, []string{
		"australia", "new zealand", "new south wales", "queensland", "tasmania",
		"western australia", "melbourne", "brisbane", "auckland",
	}},
	{domain.RegionUK, []string{
		"united kingdom", "uk", "u k", "great britain", "england", "scotland", "wales",
		"northern ireland", "london", "glasgow", "edinburgh",
	}},
	{domain.RegionEurope, []string{
		"germany", "deutschland", "france", "italy", "italia", "spain", "espana",
		"portugal", "netherlands", "holland", "belgium", "austria", "switzerland",
		"ireland", "denmark", "sweden", "norway", "finland", "poland", "czech republic",
		"czechia", "greece", "hungary", "romania", "luxembourg", "slovakia", "slovenia",
		"croatia", "estonia", "latvia", "lithuania",
	}},
	{domain.RegionInternational, []string{
		"mexico", "brazil", "argentina", "chile", "colombia", "peru", "japan", "china",
		"hong kong", "taiwan", "korea", "singapore", "malaysia", "philippines",
		"indonesia", "thailand", "vietnam", "india", "israel", "united arab emirates",
		"uae", "saudi arabia", "south africa", "turkey", "nigeria", "egypt",
	}},
}

// DetectRegion is a best-effort keyword scan over a free-text address. It never
// fails: anything it cannot place is domestic.
func DetectRegion(address string) domain.RegionTag {
	normalized := normalize(address)
	if normalized == " " {
		return domain.RegionDomestic
	}
	for _, entry := range keywords {
		for _, w := range entry.words {
			if strings.Contains(normalized, " "+w+" ") {
				return entry.region
			}
		}
	}
	return domain.RegionDomestic
}

// SelectTier returns the tier for region, else the first tier. It reports
// false only when there are no tiers at all.
func SelectTier(tiers []domain.ProductPricing, region domain.RegionTag) (domain.ProductPricing, bool) {
	if len(tiers) == 0 {
		return domain.ProductPricing{}, false
	}
	for _, t := range tiers {
		if t.Region == region {
			return t, true
		}
	}
	return tiers[0], true
}

func ForAddress(tiers []domain.ProductPricing, address string) (domain.ProductPricing, bool) {
	return SelectTier(tiers, DetectRegion(address))
}

// normalize lowercases, folds common accents, turns every non-letter into a
// single space and pads both ends so whole-word matching is a substring test.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		r = fold(r)
		if unicode.IsLetter(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

func fold(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ä', 'ã':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'ö', 'õ':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ñ':
		return 'n'
	case 'ç':
		return 'c'
	default:
		return r
	}
}
