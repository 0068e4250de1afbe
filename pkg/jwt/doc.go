// Package jwt issues and verifies HMAC-SHA256 signed tokens.
//
// It is the token black box in front of the account module: credentials go
// in, a signed compact token comes out, and Parse maps a token back to its
// claims after verifying the signature and temporal claims. The signing key
// lives in memory only.
//
// The middleware extracts a bearer token from the Authorization header,
// verifies it and stores the claims in the request context.
package jwt
