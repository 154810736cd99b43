// Package network provides the HTTP client shared by marketplace and package requests.
package network

import (
	"net/http"
	"time"

	"github.com/themetester/themetester/constant"
)

// Client is the singleton HTTP client shared across the application.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: &userAgent{next: newTransport()},
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 20
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}

// userAgent stamps requests that do not carry their own User-Agent.
type userAgent struct {
	next http.RoundTripper
}

func (u *userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", constant.UserAgent)
	return u.next.RoundTrip(clone)
}
