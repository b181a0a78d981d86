// Package common contains shared constants, sentinel errors and small helpers
// used by both the client and the identity server.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// PingStatusOK is the status string returned by a healthy identity server.
const PingStatusOK = "OK"
