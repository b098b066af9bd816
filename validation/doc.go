// Package validation wraps go-playground/validator for transport payloads.
// Failures surface as errors.AppError values with per-field details so the
// HTTP layer can return them directly.
package validation
