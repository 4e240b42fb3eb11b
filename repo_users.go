package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var SetUserActiveSQL = `UPDATE "users" AS "usr"
SET
	"is_active" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID ...uuid.UUID) (bool, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetActiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, active bool) error

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email, criteria...)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

// ExistsByEmail reports whether an account holds the email, compared
// case-insensitively. An optional excludeID skips one record, for update
// checks against the owner itself.
func (a *users) ExistsByEmail(ctx context.Context, email string, excludeID ...uuid.UUID) (bool, error) {
	q := a.db.NewSelect().
		Model((*User)(nil)).
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email))

	if len(excludeID) > 0 && excludeID[0] != uuid.Nil {
		q = q.Where("?TableAlias.id != ?", excludeID[0])
	}

	return q.Exists(ctx)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return a.SetActiveTx(ctx, a.db, id, active)
}

func (a *users) SetActiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, active bool) error {
	res, err := a.Repository.RawTx(ctx, tx, SetUserActiveSQL, active, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.Provider == "" {
		record.Provider = ProviderLocal
	}

	if record.ID == uuid.Nil {
		if id, err := hashid.NewUUID(record.Email); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}
}
