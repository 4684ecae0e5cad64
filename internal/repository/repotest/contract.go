// Package repotest holds the behavioral suite every associado.Repository
// implementation must pass.
package repotest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube/associados/internal/domain"
	"github.com/clube/associados/internal/service/associado"
)

// Factory returns a fresh, empty repository for one subtest.
type Factory func(t *testing.T) associado.Repository

func strPtr(s string) *string { return &s }

// Run executes the repository contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	ana := domain.Associado{CPF: "111", Name: "Ana", Email: "ana@x.com"}
	bia := domain.Associado{CPF: "222", Name: "Bia", Email: "bia@x.com"}

	t.Run("InsertThenFind", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.Insert(ctx, ana)
		require.NoError(t, err)
		assert.Equal(t, ana, got)

		found, ok, err := repo.FindByCPF(ctx, "111")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ana, found)
	})

	t.Run("FindMissingIsNotAnError", func(t *testing.T) {
		repo := newRepo(t)
		_, ok, err := repo.FindByCPF(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("InsertDuplicateCPF", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, ana)
		require.NoError(t, err)

		_, err = repo.Insert(ctx, domain.Associado{CPF: "111", Name: "X", Email: "x@x.com"})
		require.Error(t, err)
		assert.True(t, associado.IsDuplicateKey(err))

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("InsertDuplicateEmail", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, ana)
		require.NoError(t, err)

		_, err = repo.Insert(ctx, domain.Associado{CPF: "333", Name: "X", Email: "ana@x.com"})
		assert.True(t, associado.IsDuplicateKey(err))

		_, ok, err := repo.FindByCPF(ctx, "333")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ListAllEmptyIsNotNil", func(t *testing.T) {
		repo := newRepo(t)
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("ListAllReturnsEveryRecord", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, ana)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, bia)
		require.NoError(t, err)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []domain.Associado{ana, bia}, all)
	})

	t.Run("UpdatePartialMergesSuppliedFields", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, ana)
		require.NoError(t, err)

		got, ok, err := repo.UpdatePartial(ctx, "111", domain.AssociadoPatch{Name: strPtr("Ana Maria")})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.Associado{CPF: "111", Name: "Ana Maria", Email: "ana@x.com"}, got)

		got, ok, err = repo.UpdatePartial(ctx, "111", domain.AssociadoPatch{Email: strPtr("new@x.com")})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.Associado{CPF: "111", Name: "Ana Maria", Email: "new@x.com"}, got)

		found, _, err := repo.FindByCPF(ctx, "111")
		require.NoError(t, err)
		assert.Equal(t, got, found)
	})

	t.Run("UpdatePartialEmptyPatchKeepsRecord", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, ana)
		require.NoError(t, err)

		got, ok, err := repo.UpdatePartial(ctx, "111", domain.AssociadoPatch{})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ana, got)
	})

	t.Run("UpdatePartialMissing", func(t *testing.T) {
		repo := newRepo(t)
		_, ok, err := repo.UpdatePartial(ctx, "missing", domain.AssociadoPatch{Name: strPtr("X")})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("UpdatePartialEmailCollision", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, ana)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, bia)
		require.NoError(t, err)

		_, _, err = repo.UpdatePartial(ctx, "222", domain.AssociadoPatch{Email: strPtr("ana@x.com")})
		assert.True(t, associado.IsDuplicateKey(err))

		found, _, err := repo.FindByCPF(ctx, "222")
		require.NoError(t, err)
		assert.Equal(t, bia, found)

		_, _, err = repo.UpdatePartial(ctx, "111", domain.AssociadoPatch{Email: strPtr("ana@x.com")})
		assert.NoError(t, err, "keeping one's own email is not a collision")
	})

	t.Run("UpdatedEmailFreesTheOldOne", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, ana)
		require.NoError(t, err)
		_, _, err = repo.UpdatePartial(ctx, "111", domain.AssociadoPatch{Email: strPtr("ana2@x.com")})
		require.NoError(t, err)

		_, err = repo.Insert(ctx, domain.Associado{CPF: "333", Name: "Caio", Email: "ana@x.com"})
		assert.NoError(t, err)
	})

	t.Run("DeleteByCPF", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, ana)
		require.NoError(t, err)

		removed, err := repo.DeleteByCPF(ctx, "111")
		require.NoError(t, err)
		assert.True(t, removed)

		_, ok, err := repo.FindByCPF(ctx, "111")
		require.NoError(t, err)
		assert.False(t, ok)

		removed, err = repo.DeleteByCPF(ctx, "111")
		require.NoError(t, err)
		assert.False(t, removed)

		// The email is free again.
		_, err = repo.Insert(ctx, domain.Associado{CPF: "999", Name: "Z", Email: "ana@x.com"})
		assert.NoError(t, err)
	})
}
