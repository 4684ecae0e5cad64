package associado

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/clube/associados/internal/domain"
)

// Service implements member business logic. It is safe for concurrent use
// when its Repository is.
type Service struct {
	repo Repository
}

// NewService creates a member service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Column widths of the associados table. Every backend enforces them so a
// record accepted by one store is accepted by all.
const (
	MaxCPFLength   = 15
	MaxNameLength  = 255
	MaxEmailLength = 255
)

// Validate checks a record against the field rules and returns the first
// violation found, checking cpf, name and email in that order. The CPF is
// only required when isCreation is true.
func Validate(a domain.Associado, isCreation bool) error {
	if isCreation {
		if strings.TrimSpace(a.CPF) == "" {
			return ValidationError(FieldCPF, MsgCPFRequired)
		}
		if utf8.RuneCountInString(a.CPF) > MaxCPFLength {
			return ValidationError(FieldCPF, MsgCPFTooLong)
		}
	}
	if err := validateName(a.Name); err != nil {
		return err
	}
	return validateEmail(a.Email)
}

// ValidatePatch applies the update rules: only supplied fields are checked.
func ValidatePatch(p domain.AssociadoPatch) error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Email != nil {
		return validateEmail(*p.Email)
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError(FieldName, MsgNameRequired)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError(FieldName, MsgNameTooLong)
	}
	return nil
}

func validateEmail(email string) error {
	if !strings.Contains(email, "@") {
		return ValidationError(FieldEmail, MsgEmailInvalid)
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return ValidationError(FieldEmail, MsgEmailTooLong)
	}
	return nil
}

// Create validates a new record and stores it.
func (s *Service) Create(ctx context.Context, a domain.Associado) (domain.Associado, error) {
	if err := Validate(a, true); err != nil {
		return domain.Associado{}, err
	}
	created, err := s.repo.Insert(ctx, a)
	if err != nil {
		return domain.Associado{}, typed("insert associado", err)
	}
	return created, nil
}

// ListAll returns every stored member.
func (s *Service) ListAll(ctx context.Context) ([]domain.Associado, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, typed("list associados", err)
	}
	return all, nil
}

// FindByCPF returns the member with the given CPF or a NotFound error.
func (s *Service) FindByCPF(ctx context.Context, cpf string) (domain.Associado, error) {
	if strings.TrimSpace(cpf) == "" {
		return domain.Associado{}, ValidationError(FieldCPF, MsgSearchCPFRequired)
	}
	a, found, err := s.repo.FindByCPF(ctx, cpf)
	if err != nil {
		return domain.Associado{}, typed("find associado", err)
	}
	if !found {
		return domain.Associado{}, NotFoundError(MsgNotFound)
	}
	return a, nil
}

// UpdatePartial applies a sparse update to the member with the given CPF.
// The CPF itself is never changed.
func (s *Service) UpdatePartial(ctx context.Context, cpf string, patch domain.AssociadoPatch) (domain.Associado, error) {
	if strings.TrimSpace(cpf) == "" {
		return domain.Associado{}, ValidationError(FieldCPF, MsgUpdateCPFRequired)
	}
	if err := ValidatePatch(patch); err != nil {
		return domain.Associado{}, err
	}
	a, found, err := s.repo.UpdatePartial(ctx, cpf, patch)
	if err != nil {
		return domain.Associado{}, typed("update associado", err)
	}
	if !found {
		return domain.Associado{}, NotFoundError(MsgUpdateNotFound)
	}
	return a, nil
}

// DeleteByCPF removes the member with the given CPF.
func (s *Service) DeleteByCPF(ctx context.Context, cpf string) error {
	if strings.TrimSpace(cpf) == "" {
		return ValidationError(FieldCPF, MsgDeleteCPFRequired)
	}
	removed, err := s.repo.DeleteByCPF(ctx, cpf)
	if err != nil {
		return typed("delete associado", err)
	}
	if !removed {
		return NotFoundError(MsgDeleteNotFound)
	}
	return nil
}

// typed passes *Error values through and wraps anything else as unexpected.
func typed(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return UnexpectedError(op, err)
}
