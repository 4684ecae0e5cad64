package domain

// Associado is a club member, keyed by CPF.
//
// The wire names (cpf_associado, nome_associado, email_associado) are shared
// by the HTTP API, the relational table columns, and the key-value encodings.
type Associado struct {
	CPF   string `json:"cpf_associado" db:"cpf_associado" dynamodbav:"cpf_associado" redis:"cpf_associado"`
	Name  string `json:"nome_associado" db:"nome_associado" dynamodbav:"nome_associado" redis:"nome_associado"`
	Email string `json:"email_associado" db:"email_associado" dynamodbav:"email_associado" redis:"email_associado"`
}

// AssociadoPatch is a sparse update. A nil field was not supplied and keeps
// its stored value; a non-nil pointer to "" was supplied empty.
//
// The CPF is deliberately absent: the key of the record being updated always
// comes from the request path.
type AssociadoPatch struct {
	Name  *string `json:"nome_associado,omitempty"`
	Email *string `json:"email_associado,omitempty"`
}

// IsEmpty reports whether the patch supplies no fields at all.
func (p AssociadoPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil
}

// Apply returns a copy of a with the supplied patch fields merged over it.
func (p AssociadoPatch) Apply(a Associado) Associado {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	return a
}
