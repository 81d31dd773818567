package share

import "strings"

// PathPrefix is the route under which shared boards are opened.
const PathPrefix = "/map/"

// URL builds <origin>/map/<token>.
func URL(origin, token string) string {
	return strings.TrimRight(origin, "/") + PathPrefix + token
}

// TokenFromPath extracts the token from a /map/<token> path.
func TokenFromPath(path string) (string, bool) {
	if !strings.HasPrefix(path, PathPrefix) {
		return "", false
	}
	token := strings.TrimPrefix(path, PathPrefix)
	if token == "" {
		return "", false
	}
	return token, true
}
