// Package secheaders stamps a fixed set of security headers on every HTTP
// response.
//
// The default set disables content-type sniffing, denies frame embedding,
// forbids response caching and enforces HTTPS via HSTS. Header values are
// configuration; the set must be present on every response, including
// rejections written by other middleware, so mount it near the top of the
// chain.
package secheaders
