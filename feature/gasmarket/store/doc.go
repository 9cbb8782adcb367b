// Package store is the GORM backed persistence of gas market records.
//
// Store implements reconcile.Store for models.Candidate, so the reconcile
// engine can touch, look up, insert and update MERCADO_GAS rows, and adds the
// read queries used by the HTTP handlers and the spreadsheet export.
package store
