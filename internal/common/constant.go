// Package common contains shared constants and small helpers used across
// betclient components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential
// on outbound authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme prefixes the access token in AuthorizationHeaderName.
const BearerScheme = "Bearer"

// RequestIDHeaderName tags every outbound request with a unique id so that
// client and backend logs can be correlated.
const RequestIDHeaderName = "X-Request-ID"

// UserAgent is sent with every request issued by the client.
const UserAgent = "betclient/1.0"

// BearerValue formats token for AuthorizationHeaderName.
func BearerValue(token string) string {
	return BearerScheme + " " + token
}
