package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clube/associados/internal/api"
	"github.com/clube/associados/internal/domain"
	"github.com/clube/associados/internal/pkg/httpretry"
	"github.com/clube/associados/internal/repository/memory"
	"github.com/clube/associados/internal/service/associado"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	h := api.NewHandlers(associado.NewService(memory.New()))
	srv := httptest.NewServer(api.SetupRoutes(h, nil, api.RouteOptions{}))
	t.Cleanup(srv.Close)

	retry := httpretry.NewRetryClient(srv.Client(), 1, httpretry.WithBackoff(time.Millisecond, time.Millisecond))
	return New(srv.URL+"/api/", retry)
}

func TestClient_RoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	resp, err := c.Create(ctx, domain.Associado{CPF: "111", Name: "Ana", Email: "ana@x.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.OK())

	resp, err = c.Find(ctx, " 111 ")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"cpf_associado":"111","nome_associado":"Ana","email_associado":"ana@x.com"}`, string(resp.Body))

	name := "Ana Maria"
	resp, err = c.Update(ctx, "111", domain.AssociadoPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Pretty(), "\n  \"nome_associado\": \"Ana Maria\"")

	resp, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Delete(ctx, "111")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Body)

	resp, err = c.Find(ctx, "111")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, associado.MsgNotFound, resp.ErrorMessage())
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url+"/api", httpretry.NewRetryClient(nil, 0))
	_, err := c.List(context.Background())
	assert.Error(t, err)
}

func TestResponse_Helpers(t *testing.T) {
	r := &Response{StatusCode: http.StatusBadGateway, Body: []byte("upstream down\n")}
	assert.False(t, r.OK())
	assert.Equal(t, "upstream down", r.ErrorMessage())
	assert.Equal(t, "upstream down\n", r.Pretty())
}
