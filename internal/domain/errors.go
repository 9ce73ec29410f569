package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the remote has no entry for the requested ID
	ErrNotFound = errors.New("anime not found")

	// ErrNetworkUnreachable indicates the API host could not be reached
	ErrNetworkUnreachable = errors.New("network unreachable")

	// ErrRequestFailed indicates a timeout or a non-2xx response
	ErrRequestFailed = errors.New("request failed")

	// ErrMalformedPayload indicates the response body could not be decoded
	ErrMalformedPayload = errors.New("malformed response")

	// ErrEmptyResult indicates a list fetch returned nothing and there is no cache to fall back on
	ErrEmptyResult = errors.New("no anime found")
)

// Terminal messages surfaced on Failure results.
const (
	MsgNoAnimeFound        = "No anime found"
	MsgAnimeNotFound       = "Anime not found"
	MsgOfflineNoCache      = "No internet connection and no cached data"
	MsgOffline             = "No internet connection"
	MsgUnknownNetworkError = "Network error"
)
