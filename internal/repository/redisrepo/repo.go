// Package redisrepo implements associado.Repository on Redis.
//
// Layout, under a configurable prefix:
//
//	<prefix>:associado:<cpf>   hash with the record fields
//	<prefix>:email:<email>     string holding the owning CPF
//	<prefix>:order             list of CPFs in insertion order
//
// Every mutation runs as one Lua script, so the uniqueness checks and the
// writes they guard are applied atomically by the server.
package redisrepo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clube/associados/internal/domain"
	"github.com/clube/associados/internal/service/associado"
)

// Script status codes. On success insertScript returns resultOK and
// updateScript returns the merged record fields.
const (
	resultOK             = 0
	resultDuplicateCPF   = 1
	resultDuplicateEmail = 2
	resultMissing        = -1
)

var insertScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 1 then
		return 1
	end
	local owner = redis.call("GET", KEYS[2])
	if owner and owner ~= ARGV[1] then
		return 2
	end
	redis.call("HSET", KEYS[1], "cpf_associado", ARGV[1], "nome_associado", ARGV[2], "email_associado", ARGV[3])
	redis.call("SET", KEYS[2], ARGV[1])
	redis.call("RPUSH", KEYS[3], ARGV[1])
	return 0
`)

var updateScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 0 then
		return -1
	end
	if ARGV[4] == "1" then
		local newKey = ARGV[6] .. ARGV[5]
		local owner = redis.call("GET", newKey)
		if owner and owner ~= ARGV[1] then
			return 2
		end
		local old = redis.call("HGET", KEYS[1], "email_associado")
		if old and old ~= ARGV[5] then
			redis.call("DEL", ARGV[6] .. old)
		end
		redis.call("SET", newKey, ARGV[1])
		redis.call("HSET", KEYS[1], "email_associado", ARGV[5])
	end
	if ARGV[2] == "1" then
		redis.call("HSET", KEYS[1], "nome_associado", ARGV[3])
	end
	return redis.call("HMGET", KEYS[1], "cpf_associado", "nome_associado", "email_associado")
`)

var deleteScript = redis.NewScript(`
	local email = redis.call("HGET", KEYS[1], "email_associado")
	if not email then
		return 0
	end
	redis.call("DEL", KEYS[1])
	local emailKey = ARGV[2] .. email
	if redis.call("GET", emailKey) == ARGV[1] then
		redis.call("DEL", emailKey)
	end
	redis.call("LREM", KEYS[2], 0, ARGV[1])
	return 1
`)

// Repo implements associado.Repository against Redis.
type Repo struct {
	client *redis.Client
	prefix string
}

// New creates a Redis-backed member repository. An empty prefix defaults to
// "associados".
func New(client *redis.Client, prefix string) *Repo {
	if prefix == "" {
		prefix = "associados"
	}
	return &Repo{client: client, prefix: prefix}
}

func (r *Repo) recordKey(cpf string) string { return r.prefix + ":associado:" + cpf }
func (r *Repo) emailPrefix() string { return r.prefix + ":email:" }
func (r *Repo) emailKey(email string) string { return r.emailPrefix() + email }
func (r *Repo) orderKey() string { return r.prefix + ":order" }

func (r *Repo) Insert(ctx context.Context, a domain.Associado) (domain.Associado, error) {
	res, err := insertScript.Run(ctx, r.client,
		[]string{r.recordKey(a.CPF), r.emailKey(a.Email), r.orderKey()},
		a.CPF, a.Name, a.Email,
	).Int()
	if err != nil {
		return domain.Associado{}, fmt.Errorf("insert associado: %w", err)
	}
	switch res {
	case resultDuplicateCPF:
		return domain.Associado{}, associado.DuplicateKeyError(associado.FieldCPF)
	case resultDuplicateEmail:
		return domain.Associado{}, associado.DuplicateKeyError(associado.FieldEmail)
	}
	return a, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]domain.Associado, error) {
	cpfs, err := r.client.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list associados: %w", err)
	}
	out := make([]domain.Associado, 0, len(cpfs))
	if len(cpfs) == 0 {
		return out, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(cpfs))
	for i, cpf := range cpfs {
		cmds[i] = pipe.HGetAll(ctx, r.recordKey(cpf))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("list associados: %w", err)
	}
	for _, cmd := range cmds {
		a, ok, err := scanRecord(cmd)
		if err != nil {
			return nil, fmt.Errorf("list associados: %w", err)
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *Repo) FindByCPF(ctx context.Context, cpf string) (domain.Associado, bool, error) {
	a, ok, err := scanRecord(r.client.HGetAll(ctx, r.recordKey(cpf)))
	if err != nil {
		return domain.Associado{}, false, fmt.Errorf("find associado: %w", err)
	}
	return a, ok, nil
}

func (r *Repo) UpdatePartial(ctx context.Context, cpf string, p domain.AssociadoPatch) (domain.Associado, bool, error) {
	hasName, name := flag(p.Name)
	hasEmail, email := flag(p.Email)

	res, err := updateScript.Run(ctx, r.client,
		[]string{r.recordKey(cpf)},
		cpf, hasName, name, hasEmail, email, r.emailPrefix(),
	).Result()
	if err != nil {
		return domain.Associado{}, false, fmt.Errorf("update associado: %w", err)
	}
	switch v := res.(type) {
	case int64:
		switch v {
		case resultMissing:
			return domain.Associado{}, false, nil
		case resultDuplicateEmail:
			return domain.Associado{}, false, associado.DuplicateKeyError(associado.FieldEmail)
		}
		return domain.Associado{}, false, fmt.Errorf("update associado: unexpected script result %d", v)
	case []interface{}:
		if len(v) != 3 {
			return domain.Associado{}, false, fmt.Errorf("update associado: unexpected script result %v", v)
		}
		fields := make([]string, len(v))
		for i, f := range v {
			fields[i], _ = f.(string)
		}
		return domain.Associado{CPF: fields[0], Name: fields[1], Email: fields[2]}, true, nil
	}
	return domain.Associado{}, false, fmt.Errorf("update associado: unexpected script result %T", res)
}

func (r *Repo) DeleteByCPF(ctx context.Context, cpf string) (bool, error) {
	res, err := deleteScript.Run(ctx, r.client,
		[]string{r.recordKey(cpf), r.orderKey()},
		cpf, r.emailPrefix(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("delete associado: %w", err)
	}
	return res == 1, nil
}

// Reset removes every key under the repository prefix.
func (r *Repo) Reset(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func scanRecord(cmd *redis.MapStringStringCmd) (domain.Associado, bool, error) {
	fields, err := cmd.Result()
	if err != nil {
		return domain.Associado{}, false, err
	}
	if len(fields) == 0 {
		return domain.Associado{}, false, nil
	}
	var a domain.Associado
	if err := cmd.Scan(&a); err != nil {
		return domain.Associado{}, false, err
	}
	return a, true, nil
}

func flag(s *string) (string, string) {
	if s == nil {
		return "0", ""
	}
	return "1", *s
}
