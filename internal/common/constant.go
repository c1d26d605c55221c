// Package common contains shared constants and helpers used across libcat
// components.
package common

// AppName is the fixed application name. It keys the per-user config
// directory, the keyring service and the vault entropy.
const AppName = "libcat"

const (
	// AuthorizationHeaderName carries the bearer credential on outbound
	// catalogue requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName correlates client log lines with service logs.
	RequestIDHeaderName = "X-Request-ID"

	// BearerScheme is the authorization scheme used by the catalogue service.
	BearerScheme = "Bearer"
)
