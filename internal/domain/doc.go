// Package domain defines the core business types for the associados service.
//
// Types in this package are plain value objects shared by handlers, services,
// and repositories. They carry wire and storage tags but no database or HTTP
// dependencies.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Pure helper methods are allowed
package domain
