package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"carspec/internal/models"
)

var (
	errNoCarData          = errors.New("no car data found in page")
	errNoListingContainer = errors.New("listing container not found in page")
)

// nextData mirrors the slice of the site's embedded state we care about.
// Both the price and the grouped specification parameters live under each
// ad's attributes object.
type nextData struct {
	Props struct {
		InitialState struct {
			AdDetails struct {
				ByID map[string]struct {
					Attributes struct {
						Price     json.RawMessage `json:"price"`
						McdParams []struct {
							Header string `json:"header"`
							Params []struct {
								Label string          `json:"label"`
								Value json.RawMessage `json:"value"`
							} `json:"params"`
						} `json:"mcdParams"`
					} `json:"attributes"`
				} `json:"byID"`
			} `json:"adDetails"`
		} `json:"initialState"`
	} `json:"props"`
}

// extractCarInput pulls the car specification out of a detail page. The site
// renders from a JSON blob in a script tag with id __NEXT_DATA__; the visible
// HTML tables are ignored.
func extractCarInput(doc *html.Node) (*models.CarInput, error) {
	raw := findNextData(doc)
	if raw == "" {
		return nil, errNoCarData
	}

	var data nextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decoding embedded state: %w", err)
	}

	byID := data.Props.InitialState.AdDetails.ByID
	if len(byID) == 0 {
		return nil, errNoCarData
	}

	labels := make(map[string]string)
	var price string
	for _, ad := range byID {
		price = stringify(ad.Attributes.Price)
		for _, group := range ad.Attributes.McdParams {
			for _, p := range group.Params {
				labels[p.Label] = stringify(p.Value)
			}
		}
		break
	}
	if len(labels) == 0 {
		return nil, errNoCarData
	}

	car := &models.CarInput{
		General: models.General{
			Brand:           labels["Brand"],
			Model:           labels["Model"],
			Variant:         labels["Variant"],
			Series:          labels["Series"],
			MfgYear:         labels["Mfg. Year"],
			Mileage:         labels["Mileage"],
			Type:            labels["Type"],
			SeatCapacity:    labels["Seat Capacity"],
			CountryOfOrigin: labels["Country of Origin"],
			Price:           price,
		},
		Transmission: models.Transmission{
			Transmission: labels["Transmission"],
		},
		Engine: models.Engine{
			EngineCC:         labels["Engine CC"],
			CompressionRatio: labels["Compression Ratio"],
			PeakPower:        labels["Peak Power (KW)"],
			PeakTorque:       labels["Peak Torque (NM)"],
			EngineType:       labels["Engine Type"],
			FuelType:         labels["Fuel Type"],
		},
		DimensionAndWeight: models.DimensionAndWeight{
			Length:     labels["Length (mm)"],
			Width:      labels["Width (mm)"],
			Height:     labels["Height (mm)"],
			WheelBase:  labels["Wheel Base (mm)"],
			KerbWeight: labels["Kerb Weight (kg)"],
			FuelTank:   labels["Fuel Tank (litres)"],
		},
		Brakes: models.Brakes{
			FrontBrakes: labels["Front Brakes"],
			RearBrakes:  labels["Rear Brakes"],
		},
		Suspension: models.Suspension{
			FrontSuspension: labels["Front Suspension"],
			RearSuspension:  labels["Rear Suspension"],
		},
		Steering: models.Steering{
			Steering: labels["Steering"],
		},
		TyresAndWheels: models.TyresAndWheels{
			FrontTyres: labels["Front Tyres"],
			RearTyres:  labels["Rear Tyres"],
			FrontRims:  labels["Front Rims (inches)"],
			RearRims:   labels["Rear Rims (inches)"],
		},
	}
	return car, nil
}

// findNextData returns the text of <script id="__NEXT_DATA__">, or "".
func findNextData(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "script" {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == "__NEXT_DATA__" {
				if n.FirstChild != nil {
					return n.FirstChild.Data
				}
				return ""
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNextData(c); found != "" {
			return found
		}
	}
	return ""
}

// stringify renders a JSON scalar as the string we store. The site is not
// consistent about value types; numbers arrive both quoted and bare.
func stringify(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Trim(string(raw), `"`)
}

// carLinks collects detail-page links from a listing page: anchors inside the
// listing container (div#__next, then the "mw15 mw4" div) that carry both an
// href and a title. Anchors outside the container are nav and promo links,
// not cars. Relative links are resolved against the page URL and duplicates
// dropped in order.
func carLinks(doc *html.Node, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	main := findElement(doc, "div", "id", "__next")
	if main == nil {
		return nil, errNoListingContainer
	}
	container := findElement(main, "div", "class", "mw15 mw4")
	if container == nil {
		return nil, errNoListingContainer
	}

	var links []string
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			var href, title string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "href":
					href = attr.Val
				case "title":
					title = attr.Val
				}
			}
			if href != "" && title != "" {
				resolved := resolveURL(base, href)
				if resolved != "" && !seen[resolved] {
					seen[resolved] = true
					links = append(links, resolved)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(container)
	return links, nil
}

// findElement returns the first element with the given tag whose attribute
// matches the given value, or nil.
func findElement(n *html.Node, tag, attrKey, attrVal string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, attr := range n.Attr {
			if attr.Key == attrKey && attr.Val == attrVal {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag, attrKey, attrVal); found != nil {
			return found
		}
	}
	return nil
}

// nextPageURL returns the pagination link from <link rel="next">, or "".
func nextPageURL(doc *html.Node, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var next string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if next != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, href string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "rel":
					rel = attr.Val
				case "href":
					href = attr.Val
				}
			}
			if strings.Contains(rel, "next") && href != "" {
				next = resolveURL(base, href)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return next
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
