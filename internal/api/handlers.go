package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clube/associados/internal/domain"
	"github.com/clube/associados/internal/metrics"
	"github.com/clube/associados/internal/pkg/httputil"
	"github.com/clube/associados/internal/pkg/logger"
	"github.com/clube/associados/internal/service/associado"
)

// AssociadoService is the member service as seen by the HTTP layer.
type AssociadoService interface {
	Create(ctx context.Context, a domain.Associado) (domain.Associado, error)
	ListAll(ctx context.Context) ([]domain.Associado, error)
	FindByCPF(ctx context.Context, cpf string) (domain.Associado, error)
	UpdatePartial(ctx context.Context, cpf string, patch domain.AssociadoPatch) (domain.Associado, error)
	DeleteByCPF(ctx context.Context, cpf string) error
}

// Handlers contains the member HTTP handlers
type Handlers struct {
	svc AssociadoService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc AssociadoService) *Handlers {
	return &Handlers{svc: svc}
}

// operation describes how one endpoint reports failures: the status used for
// typed errors without a fixed status, and the message sent on 5xx.
type operation struct {
	name     string
	fallback int
	failMsg  string
}

var (
	opCreate = operation{"create", http.StatusBadRequest, "Erro ao criar associado."}
	opList   = operation{"list", http.StatusInternalServerError, "Erro ao buscar associados."}
	opFind   = operation{"find", http.StatusBadRequest, "Erro ao buscar associado por CPF."}
	opUpdate = operation{"update", http.StatusBadRequest, "Erro ao atualizar associado."}
	opDelete = operation{"delete", http.StatusBadRequest, "Erro ao deletar associado."}
)

// kindStatus fixes the status of error kinds that always carry one.
// Validation and duplicate-key errors take the operation's fallback.
var kindStatus = map[associado.Kind]int{
	associado.KindNotFound:   http.StatusNotFound,
	associado.KindUnexpected: http.StatusInternalServerError,
}

// statusFor maps err to the response status for op.
func statusFor(op operation, err error) int {
	if status, ok := kindStatus[associado.KindOf(err)]; ok {
		return status
	}
	return op.fallback
}

// respondError writes the failure of op. Typed client-facing errors keep
// their message; anything unexpected is sanitized.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, op operation, err error) {
	kind := associado.KindOf(err)
	metrics.RecordOperation(op.name, kind.String())

	status := statusFor(op, err)
	var typed *associado.Error
	if kind == associado.KindUnexpected || !errors.As(err, &typed) {
		respondSafeError(w, r, status, err, op.failMsg)
		return
	}
	logger.Debug("request rejected", "operation", op.name, "kind", kind.String(), "field", typed.Field)
	httputil.Error(w, status, typed.Message)
}

// Welcome describes the API.
//
//	GET /
func (h *Handlers) Welcome(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"message": "API CRUD de Associados está online!",
		"endpoints": []string{
			"/api/associados (GET, POST)",
			"/api/associados/cpf/{cpf} (GET - Busca por CPF)",
			"/api/associados/{cpf} (GET, PUT, DELETE)",
		},
	})
}

// CreateAssociado registers a member.
//
//	POST /api/associados
func (h *Handlers) CreateAssociado(w http.ResponseWriter, r *http.Request) {
	var in domain.Associado
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.respondError(w, r, opCreate, associado.ValidationError("", associado.MsgInvalidBody))
		return
	}

	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, opCreate, err)
		return
	}
	metrics.RecordOperation(opCreate.name, "")
	logger.Info("associado created", "cpf", created.CPF)
	httputil.Created(w, created)
}

// ListAssociados returns every member.
//
//	GET /api/associados
func (h *Handlers) ListAssociados(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.respondError(w, r, opList, err)
		return
	}
	if all == nil {
		all = []domain.Associado{}
	}
	metrics.RecordOperation(opList.name, "")
	httputil.OK(w, all)
}

// GetAssociado returns one member.
//
//	GET /api/associados/{cpf}
//	GET /api/associados/cpf/{cpf}
func (h *Handlers) GetAssociado(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.FindByCPF(r.Context(), chi.URLParam(r, "cpf"))
	if err != nil {
		h.respondError(w, r, opFind, err)
		return
	}
	metrics.RecordOperation(opFind.name, "")
	httputil.OK(w, found)
}

// UpdateAssociado applies a partial update. The CPF comes from the path;
// a CPF in the body is ignored.
//
//	PUT /api/associados/{cpf}
func (h *Handlers) UpdateAssociado(w http.ResponseWriter, r *http.Request) {
	var patch domain.AssociadoPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		h.respondError(w, r, opUpdate, associado.ValidationError("", associado.MsgInvalidBody))
		return
	}

	updated, err := h.svc.UpdatePartial(r.Context(), chi.URLParam(r, "cpf"), patch)
	if err != nil {
		h.respondError(w, r, opUpdate, err)
		return
	}
	metrics.RecordOperation(opUpdate.name, "")
	logger.Info("associado updated", "cpf", updated.CPF)
	httputil.OK(w, updated)
}

// DeleteAssociado removes a member.
//
//	DELETE /api/associados/{cpf}
func (h *Handlers) DeleteAssociado(w http.ResponseWriter, r *http.Request) {
	cpf := chi.URLParam(r, "cpf")
	if err := h.svc.DeleteByCPF(r.Context(), cpf); err != nil {
		h.respondError(w, r, opDelete, err)
		return
	}
	metrics.RecordOperation(opDelete.name, "")
	logger.Info("associado deleted", "cpf", cpf)
	httputil.NoContent(w)
}
