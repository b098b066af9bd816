// Package database opens and manages the GORM connection backing the
// conversation and sentiment stores. It handles connection retry with
// backoff, pool sizing, query logging through the service logger, and
// startup auto-migration of the domain models.
package database
