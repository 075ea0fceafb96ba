// Package domain contains the core entity types of the crowdsourcing
// platform and their validation rules.
package domain
