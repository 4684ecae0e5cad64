package associado

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classes the service can report.
type Kind int

const (
	// KindUnexpected covers storage and connection faults and bugs.
	KindUnexpected Kind = iota
	// KindValidation is a client input that breaks a business rule.
	KindValidation
	// KindNotFound is an operation that targeted a CPF not in storage.
	KindNotFound
	// KindDuplicateKey is a create or update that would repeat a CPF or email.
	KindDuplicateKey
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicateKey:
		return "duplicate_key"
	default:
		return "unexpected"
	}
}

// Error is the error type returned by the service and the repositories.
type Error struct {
	Kind    Kind
	Field   string // wire field name, when one field is at fault
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindUnexpected {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Messages surfaced to API clients.
const (
	MsgCPFRequired       = "CPF do associado é obrigatório."
	MsgNameRequired      = "Nome do associado é obrigatório."
	MsgEmailInvalid      = "Email do associado é inválido."
	MsgCPFTooLong        = "CPF do associado deve ter no máximo 15 caracteres."
	MsgNameTooLong       = "Nome do associado deve ter no máximo 255 caracteres."
	MsgEmailTooLong      = "Email do associado deve ter no máximo 255 caracteres."
	MsgInvalidValue      = "Valor inválido para o associado."
	MsgSearchCPFRequired = "CPF para busca é obrigatório."
	MsgUpdateCPFRequired = "CPF para atualização é obrigatório."
	MsgDeleteCPFRequired = "CPF para deleção é obrigatório."
	MsgNotFound          = "Associado não encontrado."
	MsgUpdateNotFound    = "Associado não encontrado para atualização."
	MsgDeleteNotFound    = "Associado não encontrado para deleção."
	MsgDuplicateCPF      = "Associado com este CPF já existe."
	MsgDuplicateEmail    = "Associado com este email já existe."
	MsgInvalidBody       = "Corpo da requisição inválido."
)

// Wire field names used in Error.Field.
const (
	FieldCPF   = "cpf_associado"
	FieldName  = "nome_associado"
	FieldEmail = "email_associado"
)

// ValidationError builds a KindValidation error for field.
func ValidationError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// NotFoundError builds a KindNotFound error.
func NotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Field: FieldCPF, Message: msg}
}

// DuplicateKeyError builds a KindDuplicateKey error for the colliding field.
func DuplicateKeyError(field string) *Error {
	msg := MsgDuplicateCPF
	if field == FieldEmail {
		msg = MsgDuplicateEmail
	}
	return &Error{Kind: KindDuplicateKey, Field: field, Message: msg}
}

// UnexpectedError wraps err as a KindUnexpected failure of op.
func UnexpectedError(op string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: op, Err: err}
}

// KindOf reports the Kind of err. Errors that are not an *Error are
// KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsDuplicateKey reports whether err is a KindDuplicateKey error.
func IsDuplicateKey(err error) bool { return KindOf(err) == KindDuplicateKey }

// IsValidation reports whether err is a KindValidation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
