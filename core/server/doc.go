// Package server holds the HTTP server configuration.
//
// While the cmd package handles the server startup, this package defines the
// listening port, the request body limit used for file uploads and the reference
// time zone in which record timestamps (CRIADO_EM, ATUALIZADO_EM) are stamped.
package server
