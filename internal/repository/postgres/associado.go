package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/clube/associados/internal/domain"
	"github.com/clube/associados/internal/service/associado"
)

// SQLSTATE codes translated into domain errors.
const (
	uniqueViolation  = "23505"
	notNullViolation = "23502"
	dataException    = "22" // class: value too long, invalid text, ...
)

// AssociadoRepo implements associado.Repository against PostgreSQL.
// Every method runs a single autocommit statement.
type AssociadoRepo struct{ db *sql.DB }

// NewAssociadoRepo creates a Postgres-backed member repository.
func NewAssociadoRepo(db *sql.DB) *AssociadoRepo { return &AssociadoRepo{db: db} }

func (r *AssociadoRepo) Insert(ctx context.Context, a domain.Associado) (domain.Associado, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO associados (cpf_associado, nome_associado, email_associado)
		VALUES ($1, $2, $3)
	`, a.CPF, a.Name, a.Email)
	if err != nil {
		if cerr := clientFault(err); cerr != nil {
			return domain.Associado{}, cerr
		}
		return domain.Associado{}, fmt.Errorf("insert associado: %w", err)
	}
	return a, nil
}

func (r *AssociadoRepo) ListAll(ctx context.Context) ([]domain.Associado, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cpf_associado, nome_associado, email_associado FROM associados`,
	)
	if err != nil {
		return nil, fmt.Errorf("list associados: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Associado, 0)
	for rows.Next() {
		var a domain.Associado
		if err := rows.Scan(&a.CPF, &a.Name, &a.Email); err != nil {
			return nil, fmt.Errorf("scan associado: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list associados: %w", err)
	}
	return out, nil
}

func (r *AssociadoRepo) FindByCPF(ctx context.Context, cpf string) (domain.Associado, bool, error) {
	var a domain.Associado
	err := r.db.QueryRowContext(ctx,
		`SELECT cpf_associado, nome_associado, email_associado FROM associados WHERE cpf_associado = $1`,
		cpf,
	).Scan(&a.CPF, &a.Name, &a.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Associado{}, false, nil
	}
	if err != nil {
		return domain.Associado{}, false, fmt.Errorf("find associado: %w", err)
	}
	return a, true, nil
}

// UpdatePartial merges the patch in one statement: COALESCE keeps the stored
// value for every field the patch leaves nil.
func (r *AssociadoRepo) UpdatePartial(ctx context.Context, cpf string, p domain.AssociadoPatch) (domain.Associado, bool, error) {
	var a domain.Associado
	err := r.db.QueryRowContext(ctx, `
		UPDATE associados
		SET nome_associado = COALESCE($2, nome_associado),
		    email_associado = COALESCE($3, email_associado)
		WHERE cpf_associado = $1
		RETURNING cpf_associado, nome_associado, email_associado
	`, cpf, nullString(p.Name), nullString(p.Email)).Scan(&a.CPF, &a.Name, &a.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Associado{}, false, nil
	}
	if err != nil {
		if cerr := clientFault(err); cerr != nil {
			return domain.Associado{}, false, cerr
		}
		return domain.Associado{}, false, fmt.Errorf("update associado: %w", err)
	}
	return a, true, nil
}

func (r *AssociadoRepo) DeleteByCPF(ctx context.Context, cpf string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM associados WHERE cpf_associado = $1`,
		cpf,
	)
	if err != nil {
		return false, fmt.Errorf("delete associado: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete associado: %w", err)
	}
	return n > 0, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// clientFault translates errors caused by the submitted values: a unique
// violation becomes DuplicateKey for the column behind the constraint, a
// not-null violation or data exception becomes a ValidationError. Other
// errors yield nil.
func clientFault(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch {
	case pqErr.Code == uniqueViolation:
		if pqErr.Constraint == constraintEmail {
			return associado.DuplicateKeyError(associado.FieldEmail)
		}
		return associado.DuplicateKeyError(associado.FieldCPF)
	case pqErr.Code == notNullViolation, pqErr.Code.Class() == dataException:
		return associado.ValidationError(pqErr.Column, associado.MsgInvalidValue)
	}
	return nil
}
