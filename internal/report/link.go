package report

import (
	"net/url"
	"strings"
)

// BuildLink builds the personalized dashboard deep link for a set of
// plant/discipline preferences. Only the first plant is encoded — the
// dashboard takes a single plant query parameter, so a multi-plant
// recipient effectively gets one plant filter. All disciplines are
// encoded as a comma-joined list. With no filters the base URL is
// returned untouched.
func BuildLink(baseURL string, plants, disciplines []string) string {
	if len(plants) == 0 && len(disciplines) == 0 {
		return baseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}

	q := u.Query()
	if len(plants) > 0 {
		q.Set("plant", plants[0])
	}
	if len(disciplines) > 0 {
		q.Set("disciplines", strings.Join(disciplines, ","))
	}
	u.RawQuery = q.Encode()

	return u.String()
}
