package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/models"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, password_hash, role, is_active,
	COALESCE(totp_secret, ''), totp_enabled, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleCashier
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(id, name, email, password_hash, role, is_active)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return translateError(err)
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email))
}

// List returns all users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update writes profile fields. An empty PasswordHash keeps the current one.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	return expectOne(r.DB.Exec(ctx,
		`UPDATE users SET name=$1, email=$2, role=$3, is_active=$4,
             password_hash=CASE WHEN $5 = '' THEN password_hash ELSE $5 END,
             updated_at=NOW()
         WHERE id=$6`,
		u.Name, u.Email, u.Role, u.IsActive, u.PasswordHash, u.ID))
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTOTPSecret stores a pending secret; 2FA stays off until EnableTOTP.
func (r *UserRepository) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error {
	return expectOne(r.DB.Exec(ctx,
		`UPDATE users SET totp_secret=$1, totp_enabled=FALSE, updated_at=NOW() WHERE id=$2`, secret, id))
}

func (r *UserRepository) EnableTOTP(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.DB.Exec(ctx,
		`UPDATE users SET totp_enabled=TRUE, updated_at=NOW() WHERE id=$1 AND totp_secret IS NOT NULL`, id))
}

func (r *UserRepository) DisableTOTP(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.DB.Exec(ctx,
		`UPDATE users SET totp_enabled=FALSE, totp_secret=NULL, updated_at=NOW() WHERE id=$1`, id))
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
