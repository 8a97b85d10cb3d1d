// Package core defines the pool policy contracts, their default
// implementations and the registry the protocol layer resolves them from.
// Protocol, persistence and transport code live outside this package and
// depend on it, never the other way around.
package core
