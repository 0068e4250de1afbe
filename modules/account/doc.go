// Package account provides user registration and password-based login.
//
// The service validates credentials against a Storage backend using bcrypt
// and never distinguishes between unknown users and wrong passwords.
// Handler exposes the service as JSON endpoints and issues signed access
// tokens on successful login.
package account
