// Package core defines the domain types shared across the Black-Cross
// detection engine: normalized events, rule and condition definitions,
// trigger records, and the generic worker pool.
package core
