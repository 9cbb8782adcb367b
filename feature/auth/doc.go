// Package auth manages API users and bearer access tokens.
//
// Users live in the USUARIO table with bcrypt password hashes. Login returns
// an HMAC signed JWT whose subject is the user ID; every other route, here and
// in the gas market feature, requires that token via the bearer middleware.
package auth
