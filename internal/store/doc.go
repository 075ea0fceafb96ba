// Package store defines the persistence interfaces for the domain
// entities and the errors their implementations surface.
package store
