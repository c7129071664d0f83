package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/models"
)

type CompanyRepository struct {
	DB *pgxpool.Pool
}

func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{DB: db}
}

func scanCompany(row rowScanner) (*models.Company, error) {
	var c models.Company
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.TaxNumber, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) error {
	c.ID = uuid.New()
	err := r.DB.QueryRow(ctx,
		`INSERT INTO companies(id, name, phone, address, tax_number)
         VALUES($1, $2, $3, $4, $5)
         RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Phone, c.Address, c.TaxNumber,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translateError(err)
}

func (r *CompanyRepository) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return scanCompany(r.DB.QueryRow(ctx,
		`SELECT id, name, phone, address, tax_number, created_at, updated_at FROM companies WHERE id=$1`, id))
}

func (r *CompanyRepository) List(ctx context.Context) ([]*models.Company, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, phone, address, tax_number, created_at, updated_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *CompanyRepository) Update(ctx context.Context, c *models.Company) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE companies SET name=$1, phone=$2, address=$3, tax_number=$4, updated_at=NOW()
         WHERE id=$5 RETURNING created_at, updated_at`,
		c.Name, c.Phone, c.Address, c.TaxNumber, c.ID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translateError(err)
}

func (r *CompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM companies WHERE id=$1`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
