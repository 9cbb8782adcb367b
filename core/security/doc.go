// Package security provides password hashing and access token handling.
//
// Passwords are hashed with bcrypt. Access tokens are HMAC signed JWTs whose
// subject is the user ID; their lifetime comes from the auth configuration.
package security
