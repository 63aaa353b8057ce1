// Package types defines the domain model for the reclaim lost-and-found
// service: found objects and their claim lifecycle, want-notifications,
// the record-store and dispatch contracts the core consumes, and the
// standard errors every operation reports.
package types
