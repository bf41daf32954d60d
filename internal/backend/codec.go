package backend

import (
	"encoding/base64"
	"errors"
	"strings"
)

// EncodeBasicAuth turns an admin username/password pair into the single
// Authorization header value carried by every write call. The raw pair is
// not retained anywhere past this call.
func EncodeBasicAuth(username, password string) (string, error) {
	if username == "" || password == "" {
		return "", errors.New("username and password are required")
	}
	if strings.ContainsRune(username, ':') {
		return "", errors.New("username must not contain ':'")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + encoded, nil
}
