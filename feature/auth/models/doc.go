// Package models defines the USUARIO table and the auth request and response
// payloads.
package models
