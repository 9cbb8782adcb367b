// Package export renders gas market records as an xlsx workbook with a single
// MercadoGas sheet.
package export
