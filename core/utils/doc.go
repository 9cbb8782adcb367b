// Package utils provides small helpers shared by the gas-market packages:
// scalar conversion for loosely typed input and character set lookup for
// uploaded files.
package utils
