package cluster

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ConnectionData holds what is needed to log in to a cluster.
type ConnectionData struct {
	Name     string
	BaseURL  string
	Tenant   string
	User     string
	Password string
}

// SetBaseURL validates raw and stores it without path, query and fragment.
func (d *ConnectionData) SetBaseURL(raw string) error {
	base, err := NormalizeBaseURL(raw)
	if err != nil {
		return err
	}
	d.BaseURL = base
	return nil
}

// NormalizeBaseURL checks that raw is an https URL with a host and an
// optional numeric port, and strips everything after the host.
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("%w: only https is allowed, got scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if strings.TrimSpace(u.Hostname()) == "" {
		return "", fmt.Errorf("%w: no hostname", ErrInvalidBaseURL)
	}
	if p := u.Port(); p != "" {
		if _, err := strconv.Atoi(p); err != nil {
			return "", fmt.Errorf("%w: port %q is not an integer", ErrInvalidBaseURL, p)
		}
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String(), nil
}
