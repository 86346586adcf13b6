package daegufood

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mrlokans/matjip/internal/entities"
)

// UnknownRegion is used when no district or county can be read from an address.
const UnknownRegion = "기타"

const bookingAvailable = "가능"

var regionPattern = regexp.MustCompile(`대구광역시?\s*([\w가-힣]+구|[\w가-힣]+군)`)

// ExtractRegion returns the district (구) or county (군) that follows the city
// name in a Daegu address.
func ExtractRegion(address string) string {
	m := regionPattern.FindStringSubmatch(address)
	if m == nil {
		return UnknownRegion
	}
	return m[1]
}

// ConvertToRestaurant maps an API row to a cache candidate. The ID is left
// empty; the store assigns one.
func ConvertToRestaurant(it Item) entities.Restaurant {
	return entities.Restaurant{
		ExternalID:      it.OpenDataID,
		Name:            strings.TrimSpace(it.Name),
		Address:         strings.TrimSpace(it.Address),
		Category:        strings.TrimSpace(it.Category),
		Region:          ExtractRegion(it.Address),
		Phone:           strings.TrimSpace(it.Phone),
		BusinessHours:   HTMLToText(it.Hours),
		Menu:            HTMLToText(it.Menu),
		Description:     HTMLToText(it.Description),
		SeatCount:       strings.TrimSpace(it.SeatCount),
		Parking:         strings.TrimSpace(it.Parking),
		Homepage:        strings.TrimSpace(it.Homepage),
		Subway:          strings.TrimSpace(it.Subway),
		Bus:             strings.TrimSpace(it.Bus),
		Facilities:      strings.TrimSpace(it.Facilities),
		ForeignLanguage: strings.TrimSpace(it.Foreign),
		Breakfast:       strings.TrimSpace(it.Breakfast),
		Dessert:         strings.TrimSpace(it.Dessert),
		Reservation:     strings.TrimSpace(it.Booking) == bookingAvailable,
	}
}

// HTMLToText flattens the API's HTML fragments: <br> becomes a line break,
// tags are dropped, entities decoded and blank lines removed.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
