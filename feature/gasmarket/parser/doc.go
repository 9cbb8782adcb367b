// Package parser turns uploaded gas market files into candidate records.
//
// An upload goes through three steps:
//
//  1. Decode: the bytes are decoded with the first encoding of the configured
//     fallback list that accepts them (UTF-8 with optional BOM, Latin-1,
//     Windows-1258 by default).
//  2. Detect: text starting with '[' or '{' that parses as JSON is read as a
//     row array, a container object (registros, dados, items, itens, data,
//     result) or a single row. Anything else is delimited text whose
//     delimiter is the most frequent of ';', tab, '|' and ','.
//  3. Normalize: keys are trimmed, unquoted and uppercased, DATA is parsed as
//     YYYY-MM-DD, DD/MM/YYYY or DD-MM-YYYY and VALOR accepts both decimal
//     separators.
//
// Row failures are collected with their 1-based row number (header line
// included for tabular input) instead of stopping at the first bad row.
package parser
