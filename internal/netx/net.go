// Package netx holds small HTTP helpers shared by the server and client.
package netx

import (
	"strings"

	"github.com/dmitrijs2005/postboard/internal/common"
)

// BearerHeader formats token as an Authorization header value.
func BearerHeader(token string) string {
	return common.BearerScheme + " " + token
}

// ParseBearer extracts the token from an Authorization header value. The
// scheme is matched case-insensitively; an empty token is rejected.
func ParseBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
