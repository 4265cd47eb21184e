package identity

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens stores issued session tokens. Keys are unique at the storage
// layer; records are created once and never mutated.
type Tokens interface {
	repository.Repository[*Token]

	Create(ctx context.Context, record *Token, criteria ...repository.InsertCriteria) (*Token, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Token, criteria ...repository.InsertCriteria) (*Token, error)
	GetByKey(ctx context.Context, key string) (*Token, error)
	GetByKeyTx(ctx context.Context, tx bun.IDB, key string) (*Token, error)
}

type tokens struct {
	repository.Repository[*Token]
	db *bun.DB
}

var (
	_ Tokens                        = (*tokens)(nil)
	_ repository.Repository[*Token] = (*tokens)(nil)
)

func NewTokensRepository(db *bun.DB) Tokens {
	repo := repository.NewRepository[*Token](db, repository.ModelHandlers[*Token]{
		NewRecord: func() *Token { return &Token{} },
		GetID: func(t *Token) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Token, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "key"
		},
	})

	return &tokens{
		Repository: repo,
		db:         db,
	}
}

func (a *tokens) Create(ctx context.Context, record *Token, criteria ...repository.InsertCriteria) (*Token, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *tokens) CreateTx(ctx context.Context, tx bun.IDB, record *Token, criteria ...repository.InsertCriteria) (*Token, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *tokens) GetByKey(ctx context.Context, key string) (*Token, error) {
	return a.GetByKeyTx(ctx, a.db, key)
}

// GetByKeyTx loads the token along with its owning user so callers can
// check account state without a second query.
func (a *tokens) GetByKeyTx(ctx context.Context, tx bun.IDB, key string) (*Token, error) {
	record := &Token{}

	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}
