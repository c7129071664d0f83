package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/models"
)

type VendorRepository struct {
	DB *pgxpool.Pool
}

func NewVendorRepository(db *pgxpool.Pool) *VendorRepository {
	return &VendorRepository{DB: db}
}

const vendorColumns = `id, name, phone, address, company_id, created_at, updated_at`

func scanVendor(row rowScanner) (*models.Vendor, error) {
	var v models.Vendor
	if err := row.Scan(&v.ID, &v.Name, &v.Phone, &v.Address, &v.CompanyID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	return &v, nil
}

func (r *VendorRepository) Create(ctx context.Context, v *models.Vendor) error {
	v.ID = uuid.New()
	err := r.DB.QueryRow(ctx,
		`INSERT INTO vendors(id, name, phone, address, company_id)
         VALUES($1, $2, $3, $4, $5)
         RETURNING created_at, updated_at`,
		v.ID, v.Name, v.Phone, v.Address, v.CompanyID,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	return translateError(err)
}

func (r *VendorRepository) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return scanVendor(r.DB.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id=$1`, id))
}

func (r *VendorRepository) List(ctx context.Context) ([]*models.Vendor, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+vendorColumns+` FROM vendors ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*models.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (r *VendorRepository) Update(ctx context.Context, v *models.Vendor) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE vendors SET name=$1, phone=$2, address=$3, company_id=$4, updated_at=NOW()
         WHERE id=$5 RETURNING created_at, updated_at`,
		v.Name, v.Phone, v.Address, v.CompanyID, v.ID,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	return translateError(err)
}

func (r *VendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM vendors WHERE id=$1`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
