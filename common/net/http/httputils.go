package http

import (
	"net/http"
	"strconv"
	"strings"
)

// QueryHeader holds the pagination parameters accepted by the list endpoints.
type QueryHeader struct {
	Limit int
	Page  int
}

// ValidateParameters validates and returns the pagination parameters, falling
// back to a page of 10 starting at page 1 when absent or malformed.
func ValidateParameters(params map[string]string) *QueryHeader {
	limit := 10
	page := 1

	for key, value := range params {
		switch {
		case strings.Contains(key, "limit"):
			if v, err := strconv.Atoi(value); err == nil {
				limit = v
			}
		case strings.Contains(key, "page"):
			if v, err := strconv.Atoi(value); err == nil {
				page = v
			}
		}
	}

	return &QueryHeader{Limit: limit, Page: page}
}

// IPAddrFromRemoteAddr removes port information from string.
func IPAddrFromRemoteAddr(s string) string {
	idx := strings.LastIndex(s, ":")
	if idx == -1 {
		return s
	}

	return s[:idx]
}

// GetRemoteAddress returns IP address of the client making the request.
// It checks for X-Real-Ip or X-Forwarded-For headers which is used by Proxies.
func GetRemoteAddress(r *http.Request) string {
	realIP := r.Header.Get(headerRealIP)
	forwardedFor := r.Header.Get(headerForwardedFor)

	if realIP == "" && forwardedFor == "" {
		return IPAddrFromRemoteAddr(r.RemoteAddr)
	}

	if forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}

		return parts[0]
	}

	return realIP
}
