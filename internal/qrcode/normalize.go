package qrcode

import (
	"net/url"
	"strings"
)

// NormalizeURL cleans up a destination URL before it is stored.
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// - Removes empty fragment
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	host := u.Host
	if strings.HasSuffix(host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(host, ":80")
	} else if strings.HasSuffix(host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(host, ":443")
	}

	if u.Fragment == "" {
		u.RawFragment = ""
	}

	return u.String(), nil
}
