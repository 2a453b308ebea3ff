package process

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

var linkSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
}

// LinkURL reports whether raw is a well-formed absolute URL that may be
// rendered as a link, and returns its normalized form.
func LinkURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !linkSchemes[strings.ToLower(u.Scheme)] || u.Hostname() == "" {
		return "", false
	}

	normalized, err := Normalize(raw)
	if err != nil {
		return raw, true
	}
	return normalized, true
}

func Normalize(url string) (string, error) {
	flags := purell.FlagLowercaseScheme |
		purell.FlagLowercaseHost |
		purell.FlagRemoveDefaultPort |
		purell.FlagDecodeUnnecessaryEscapes |
		purell.FlagEncodeNecessaryEscapes |
		purell.FlagRemoveDotSegments

	return purell.NormalizeURLString(url, flags)
}
