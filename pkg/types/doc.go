// Package types defines the Store and table interfaces, the entity types,
// and the standard error values for the tutor record keeper.
//
// Students, vocabulary entries and lesson links are plain structs; storage
// backends (see internal/sqlite) hydrate them from rows and the HTTP layer
// encodes them as JSON.
package types
