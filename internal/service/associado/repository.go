package associado

import (
	"context"

	"github.com/clube/associados/internal/domain"
)

// Repository defines the data access contract for members.
//
// Absence is reported through the found/removed booleans, never as an error;
// deciding whether absence is exceptional is the service's job.
type Repository interface {
	// Insert stores a fully populated record. Returns a DuplicateKey error if
	// the CPF already exists or the email belongs to another record.
	Insert(ctx context.Context, a domain.Associado) (domain.Associado, error)

	// ListAll returns every record. The result is never nil.
	ListAll(ctx context.Context) ([]domain.Associado, error)

	// FindByCPF returns the record and true, or false if it does not exist.
	FindByCPF(ctx context.Context, cpf string) (domain.Associado, bool, error)

	// UpdatePartial merges the supplied patch fields over the stored record
	// and returns the result, or false if no record has that CPF. Returns a
	// DuplicateKey error if the new email belongs to another record.
	UpdatePartial(ctx context.Context, cpf string, patch domain.AssociadoPatch) (domain.Associado, bool, error)

	// DeleteByCPF removes the record and reports whether one was removed.
	DeleteByCPF(ctx context.Context, cpf string) (bool, error)
}
