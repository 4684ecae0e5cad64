// Package cli implements the interactive member menu.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clube/associados/internal/client"
	"github.com/clube/associados/internal/domain"
)

// API is the subset of *client.Client the menu drives.
type API interface {
	Create(ctx context.Context, a domain.Associado) (*client.Response, error)
	List(ctx context.Context) (*client.Response, error)
	Find(ctx context.Context, cpf string) (*client.Response, error)
	Update(ctx context.Context, cpf string, patch domain.AssociadoPatch) (*client.Response, error)
	Delete(ctx context.Context, cpf string) (*client.Response, error)
}

// Menu reads choices from in and writes prompts and results to out.
type Menu struct {
	api API
	in  *bufio.Scanner
	out io.Writer
}

// New creates a Menu over api.
func New(api API, in io.Reader, out io.Writer) *Menu {
	return &Menu{api: api, in: bufio.NewScanner(in), out: out}
}

// errInputClosed ends the loop when input runs out mid-prompt.
var errInputClosed = errors.New("input closed")

const separator = "----------------------------------------"

// Run loops until the user picks 0, input ends, or ctx is canceled.
func (m *Menu) Run(ctx context.Context) error {
	m.println("--- API CRUD DE ASSOCIADOS CLI ---")

	for ctx.Err() == nil {
		m.println("\n" + separator)
		m.println("Escolha uma operação:")
		m.println("1. Criar Associado (POST /api/associados)")
		m.println("2. Listar Todos (GET /api/associados)")
		m.println("3. Buscar por CPF (GET /api/associados/{cpf})")
		m.println("4. Atualizar por CPF (PUT /api/associados/{cpf})")
		m.println("5. Deletar por CPF (DELETE /api/associados/{cpf})")
		m.println("0. Sair")
		m.println(separator)

		choice, err := m.ask("Opção: ")
		if err != nil {
			break
		}

		switch choice {
		case "1":
			err = m.create(ctx)
		case "2":
			m.println("\n--- LISTAR TODOS OS ASSOCIADOS ---")
			m.report(m.api.List(ctx))
		case "3":
			err = m.find(ctx)
		case "4":
			err = m.update(ctx)
		case "5":
			err = m.delete(ctx)
		case "0":
			m.println("\nSaindo do Menu CLI. Até mais!")
			return nil
		default:
			m.println("[AVISO] Opção inválida. Tente novamente.")
		}
		if errors.Is(err, errInputClosed) {
			break
		}
	}

	m.println("\nSaindo do Menu CLI. Até mais!")
	return ctx.Err()
}

func (m *Menu) create(ctx context.Context) error {
	m.println("\n--- CADASTRAR NOVO ASSOCIADO ---")
	cpf, err := m.ask("CPF (Obrigatório): ")
	if err != nil {
		return err
	}
	name, err := m.ask("Nome: ")
	if err != nil {
		return err
	}
	email, err := m.ask("Email: ")
	if err != nil {
		return err
	}
	m.report(m.api.Create(ctx, domain.Associado{CPF: cpf, Name: name, Email: email}))
	return nil
}

func (m *Menu) find(ctx context.Context) error {
	m.println("\n--- BUSCAR ASSOCIADO POR CPF ---")
	cpf, err := m.ask("Digite o CPF para busca: ")
	if err != nil {
		return err
	}
	m.report(m.api.Find(ctx, cpf))
	return nil
}

func (m *Menu) update(ctx context.Context) error {
	m.println("\n--- ATUALIZAR ASSOCIADO POR CPF ---")
	cpf, err := m.ask("Digite o CPF do associado a ser atualizado: ")
	if err != nil {
		return err
	}

	m.println("\nPreencha APENAS os campos que deseja alterar (deixe em branco para ignorar):")
	name, err := m.ask("Novo Nome: ")
	if err != nil {
		return err
	}
	email, err := m.ask("Novo Email: ")
	if err != nil {
		return err
	}

	var patch domain.AssociadoPatch
	if name != "" {
		patch.Name = &name
	}
	if email != "" {
		patch.Email = &email
	}
	if patch.IsEmpty() {
		m.println("[AVISO] Nenhuma alteração fornecida. Operação cancelada.")
		return nil
	}
	m.report(m.api.Update(ctx, cpf, patch))
	return nil
}

func (m *Menu) delete(ctx context.Context) error {
	m.println("\n--- DELETAR ASSOCIADO POR CPF ---")
	cpf, err := m.ask("Digite o CPF do associado a ser DELETADO: ")
	if err != nil {
		return err
	}
	confirm, err := m.ask(fmt.Sprintf("Tem certeza que deseja DELETAR o associado com CPF %s? (S/N): ", cpf))
	if err != nil {
		return err
	}
	if !strings.EqualFold(confirm, "S") {
		m.println("[AVISO] Operação de deleção cancelada.")
		return nil
	}
	m.report(m.api.Delete(ctx, cpf))
	return nil
}

// report prints the outcome of one API call.
func (m *Menu) report(resp *client.Response, err error) {
	if err != nil {
		m.println("\n[ERRO DE CONEXÃO/REDE]: Não foi possível conectar à API. Certifique-se de que o servidor está rodando.")
		m.println("Detalhe do erro: " + err.Error())
		return
	}

	m.println(fmt.Sprintf("\n=> %s %s", resp.Method, resp.URL))
	m.println(fmt.Sprintf("\n[STATUS] %s", resp.Status))
	switch {
	case !resp.OK():
		m.println("[ERRO NA API]: " + resp.ErrorMessage())
	case resp.StatusCode == http.StatusNoContent:
		m.println("[SUCESSO] Operação realizada sem retorno de conteúdo.")
	default:
		m.println("[RESPOSTA]:")
		m.println(strings.TrimRight(resp.Pretty(), "\n"))
	}
}

// ask prints prompt and returns the next trimmed input line.
func (m *Menu) ask(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		return "", errInputClosed
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}
