// Package utils provides common utility functions for the record-sync application.
// It includes helpers for loose type conversion of driver values and identifier
// inflection that don't fit into domain-specific packages.
package utils
