package middleware

import (
	"strings"

	"github.com/bkclothing/bk-site/env"
)

func IsOriginAllowed(requestOrigin string) bool {
	if env.GetString("ENV") == "local" {
		return true
	}

	for _, origin := range strings.Split(env.GetString("ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" || strings.EqualFold(strings.TrimSuffix(origin, "/"), requestOrigin) {
			return true
		}
	}

	return false
}
