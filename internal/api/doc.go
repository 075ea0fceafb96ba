// Package api implements the generic REST CRUD dispatcher and the
// per-entity handlers it drives.
package api
