// Package models defines the gas market types: the persisted Record (table
// MERCADO_GAS), the unsaved Candidate produced by the API and the upload
// parser, and the Date column type.
package models
