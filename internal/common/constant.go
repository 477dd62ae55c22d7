package common

const (
	// AuthorizationHeader carries the bearer token on protected requests.
	AuthorizationHeader = "Authorization"
	// BearerPrefix precedes the token inside AuthorizationHeader.
	BearerPrefix = "Bearer "
)
