package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MarkTokenUsedSQL is the conditional update that closes the double
// consumption race: the unused -> used transition happens in a single
// atomic statement, never as a read-then-write pair. Zero rows back means
// another consumer already won.
var MarkTokenUsedSQL = `UPDATE "verification_tokens" AS "vtk"
SET
	"is_used" = TRUE,
	"used_at" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"vtk"."token_id" = ?
AND
	"vtk"."is_used" = FALSE
RETURNING *;`

type VerificationTokens interface {
	repository.Repository[*VerificationToken]

	Create(ctx context.Context, record *VerificationToken, criteria ...repository.InsertCriteria) (*VerificationToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *VerificationToken, criteria ...repository.InsertCriteria) (*VerificationToken, error)

	GetByTokenID(ctx context.Context, tokenID uuid.UUID) (*VerificationToken, error)
	GetByTokenIDTx(ctx context.Context, tx bun.IDB, tokenID uuid.UUID) (*VerificationToken, error)

	MarkUsed(ctx context.Context, tokenID uuid.UUID) (*VerificationToken, error)
	MarkUsedTx(ctx context.Context, tx bun.IDB, tokenID uuid.UUID) (*VerificationToken, error)
}

type verificationTokens struct {
	repository.Repository[*VerificationToken]
	db  *bun.DB
	now func() time.Time
}

var (
	_ VerificationTokens                        = (*verificationTokens)(nil)
	_ repository.Repository[*VerificationToken] = (*verificationTokens)(nil)
)

func NewVerificationTokensRepository(db *bun.DB) VerificationTokens {
	repo := repository.NewRepository[*VerificationToken](db, repository.ModelHandlers[*VerificationToken]{
		NewRecord: func() *VerificationToken { return &VerificationToken{} },
		GetID: func(record *VerificationToken) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *VerificationToken, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token_id"
		},
	})

	return &verificationTokens{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

func (r *verificationTokens) Create(ctx context.Context, record *VerificationToken, criteria ...repository.InsertCriteria) (*VerificationToken, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *verificationTokens) CreateTx(ctx context.Context, tx bun.IDB, record *VerificationToken, criteria ...repository.InsertCriteria) (*VerificationToken, error) {
	prepareTokenDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *verificationTokens) GetByTokenID(ctx context.Context, tokenID uuid.UUID) (*VerificationToken, error) {
	return r.GetByTokenIDTx(ctx, r.db, tokenID)
}

func (r *verificationTokens) GetByTokenIDTx(ctx context.Context, tx bun.IDB, tokenID uuid.UUID) (*VerificationToken, error) {
	record := &VerificationToken{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token_id = ?", tokenID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"token_id": tokenID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// MarkUsed transitions a record from unused to used. Exactly one of N
// concurrent calls for the same tokenID succeeds; the rest get
// ErrTokenAlreadyUsed. Callers are expected to have resolved the record
// first, so a missing tokenID also reads as already consumed.
func (r *verificationTokens) MarkUsed(ctx context.Context, tokenID uuid.UUID) (*VerificationToken, error) {
	return r.MarkUsedTx(ctx, r.db, tokenID)
}

func (r *verificationTokens) MarkUsedTx(ctx context.Context, tx bun.IDB, tokenID uuid.UUID) (*VerificationToken, error) {
	res, err := r.Repository.RawTx(ctx, tx, MarkTokenUsedSQL, r.now(), tokenID.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrTokenAlreadyUsed
	}

	return res[0], nil
}

func prepareTokenDefaults(record *VerificationToken) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.TokenID == uuid.Nil {
		record.TokenID = uuid.New()
	}
}
