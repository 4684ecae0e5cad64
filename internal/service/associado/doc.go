// Package associado implements the member (associado) service.
//
// The service validates inbound records and patches, orchestrates the
// create/read/update/delete operations against a Repository, and turns the
// repository's absence signals into typed NotFound errors.
//
// The service layer depends only on the Repository interface defined in
// repository.go. It never imports net/http or a database driver directly;
// the storage adapters under internal/repository import this package for
// the contract and the error constructors.
package associado
