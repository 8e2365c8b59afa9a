package emission

import (
	"net/url"
	"strings"
)

// classifierRule maps a literal hostname fragment to a service.
type classifierRule struct {
	fragment string
	service  Service
}

// classifierRules is an ordered table; the first matching fragment wins.
// Matching is "hostname contains fragment", so subdomains like
// m.youtube.com and www.netflix.com classify without extra entries.
var classifierRules = []classifierRule{
	{"youtube.com", ServiceYouTube},
	{"netflix.com", ServiceNetflix},
	{"twitch.tv", ServiceTwitch},
	{"disneyplus.com", ServiceDisneyPlus},
	{"spotify.com", ServiceSpotify},
	{"music.apple.com", ServiceAppleMusic},
	{"tiktok.com", ServiceTikTok},
	{"instagram.com", ServiceInstagram},
	{"zoom.us", ServiceVideoCall},
	{"meet.google.com", ServiceVideoCall},
	{"teams.microsoft.com", ServiceVideoCall},
}

// Classify maps a raw URL to a service tag. It is a pure function:
// the same URL always yields the same tag. Unparseable URLs and
// unmatched hostnames classify as GENERAL.
func Classify(rawURL string) Service {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ServiceGeneral
	}
	hostname := strings.ToLower(u.Hostname())
	if hostname == "" {
		return ServiceGeneral
	}
	for _, rule := range classifierRules {
		if strings.Contains(hostname, rule.fragment) {
			return rule.service
		}
	}
	return ServiceGeneral
}
