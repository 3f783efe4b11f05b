package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/types/business"
)

// Store is the pgx-backed Querier. Every query is scoped to the configured
// application id, so multiple deployments can share one database.
type Store struct {
	pool  *pgxpool.Pool
	appID string
	feed  *ChangeFeed
}

var _ Querier = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, appID string, feed *ChangeFeed) *Store {
	return &Store{pool: pool, appID: appID, feed: feed}
}

func (s *Store) publish(collection string, op ChangeOp, id string) {
	if s.feed != nil {
		s.feed.Publish(ChangeEvent{Collection: collection, Op: op, ID: id})
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func translateErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func marshalJSONB(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jsonb column: %w", err)
	}
	return raw, nil
}

// ---- Entities ----

const entityColumns = `id, name, gst_registered, gstin, pan, place_of_supply,
	invoice_prefix, next_invoice_number, address, bank_details, created_at, updated_at`

func scanEntity(row rowScanner) (business.Entity, error) {
	var e business.Entity
	var addrRaw, bankRaw []byte
	err := row.Scan(&e.ID, &e.Name, &e.GstRegistered, &e.GSTIN, &e.PAN, &e.PlaceOfSupply,
		&e.InvoicePrefix, &e.NextInvoiceNumber, &addrRaw, &bankRaw, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return business.Entity{}, translateErr(err)
	}
	if err := json.Unmarshal(addrRaw, &e.Address); err != nil {
		return business.Entity{}, fmt.Errorf("failed to decode entity address: %w", err)
	}
	if err := json.Unmarshal(bankRaw, &e.BankDetails); err != nil {
		return business.Entity{}, fmt.Errorf("failed to decode entity bank details: %w", err)
	}
	return e, nil
}

func (s *Store) CreateEntity(ctx context.Context, entity business.Entity) (business.Entity, error) {
	addrRaw, err := marshalJSONB(entity.Address)
	if err != nil {
		return business.Entity{}, err
	}
	bankRaw, err := marshalJSONB(entity.BankDetails)
	if err != nil {
		return business.Entity{}, err
	}

	row := s.pool.QueryRow(ctx, `INSERT INTO entities
		(id, app_id, name, gst_registered, gstin, pan, place_of_supply,
		 invoice_prefix, next_invoice_number, address, bank_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+entityColumns,
		entity.ID, s.appID, entity.Name, entity.GstRegistered, entity.GSTIN, entity.PAN,
		entity.PlaceOfSupply, entity.InvoicePrefix, entity.NextInvoiceNumber, addrRaw, bankRaw)

	created, err := scanEntity(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Entity{}, ErrDuplicateName
		}
		return business.Entity{}, err
	}
	s.publish(constants.CollectionEntities, OpCreate, created.ID.String())
	return created, nil
}

func (s *Store) GetEntity(ctx context.Context, id uuid.UUID) (business.Entity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = $1 AND app_id = $2`, id, s.appID)
	return scanEntity(row)
}

func (s *Store) ListEntities(ctx context.Context) ([]business.Entity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE app_id = $1 ORDER BY lower(name)`, s.appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []business.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (s *Store) UpdateEntity(ctx context.Context, entity business.Entity) (business.Entity, error) {
	addrRaw, err := marshalJSONB(entity.Address)
	if err != nil {
		return business.Entity{}, err
	}
	bankRaw, err := marshalJSONB(entity.BankDetails)
	if err != nil {
		return business.Entity{}, err
	}

	// next_invoice_number is deliberately not settable here; it only moves
	// through CreateInvoice.
	row := s.pool.QueryRow(ctx, `UPDATE entities SET
		name = $3, gst_registered = $4, gstin = $5, pan = $6, place_of_supply = $7,
		invoice_prefix = $8, address = $9, bank_details = $10, updated_at = now()
		WHERE id = $1 AND app_id = $2
		RETURNING `+entityColumns,
		entity.ID, s.appID, entity.Name, entity.GstRegistered, entity.GSTIN, entity.PAN,
		entity.PlaceOfSupply, entity.InvoicePrefix, addrRaw, bankRaw)

	updated, err := scanEntity(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Entity{}, ErrDuplicateName
		}
		return business.Entity{}, err
	}
	s.publish(constants.CollectionEntities, OpUpdate, updated.ID.String())
	return updated, nil
}

func (s *Store) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM entities WHERE id = $1 AND app_id = $2`, id, s.appID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(constants.CollectionEntities, OpDelete, id.String())
	return nil
}

func (s *Store) EntityNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	return s.nameExists(ctx, "entities", name, excludeID)
}

// nameExists backs the case-insensitive uniqueness checks shared by all
// master-data tables. The table name is always one of our own constants,
// never user input.
func (s *Store) nameExists(ctx context.Context, table, name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+`
			WHERE app_id = $1 AND lower(name) = lower($2) AND id <> $3)`,
		s.appID, name, excludeID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ---- Customers ----

const customerColumns = `id, name, gst_registered, gstin, pan, place_of_supply,
	email, phone, address, created_at, updated_at`

func scanCustomer(row rowScanner) (business.Customer, error) {
	var c business.Customer
	var addrRaw []byte
	err := row.Scan(&c.ID, &c.Name, &c.GstRegistered, &c.GSTIN, &c.PAN, &c.PlaceOfSupply,
		&c.Email, &c.Phone, &addrRaw, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return business.Customer{}, translateErr(err)
	}
	if err := json.Unmarshal(addrRaw, &c.Address); err != nil {
		return business.Customer{}, fmt.Errorf("failed to decode customer address: %w", err)
	}
	return c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer business.Customer) (business.Customer, error) {
	addrRaw, err := marshalJSONB(customer.Address)
	if err != nil {
		return business.Customer{}, err
	}

	row := s.pool.QueryRow(ctx, `INSERT INTO customers
		(id, app_id, name, gst_registered, gstin, pan, place_of_supply, email, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+customerColumns,
		customer.ID, s.appID, customer.Name, customer.GstRegistered, customer.GSTIN,
		customer.PAN, customer.PlaceOfSupply, customer.Email, customer.Phone, addrRaw)

	created, err := scanCustomer(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Customer{}, ErrDuplicateName
		}
		return business.Customer{}, err
	}
	s.publish(constants.CollectionCustomers, OpCreate, created.ID.String())
	return created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (business.Customer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND app_id = $2`, id, s.appID)
	return scanCustomer(row)
}

func (s *Store) ListCustomers(ctx context.Context) ([]business.Customer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE app_id = $1 ORDER BY lower(name)`, s.appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []business.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) UpdateCustomer(ctx context.Context, customer business.Customer) (business.Customer, error) {
	addrRaw, err := marshalJSONB(customer.Address)
	if err != nil {
		return business.Customer{}, err
	}

	row := s.pool.QueryRow(ctx, `UPDATE customers SET
		name = $3, gst_registered = $4, gstin = $5, pan = $6, place_of_supply = $7,
		email = $8, phone = $9, address = $10, updated_at = now()
		WHERE id = $1 AND app_id = $2
		RETURNING `+customerColumns,
		customer.ID, s.appID, customer.Name, customer.GstRegistered, customer.GSTIN,
		customer.PAN, customer.PlaceOfSupply, customer.Email, customer.Phone, addrRaw)

	updated, err := scanCustomer(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Customer{}, ErrDuplicateName
		}
		return business.Customer{}, err
	}
	s.publish(constants.CollectionCustomers, OpUpdate, updated.ID.String())
	return updated, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND app_id = $2`, id, s.appID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(constants.CollectionCustomers, OpDelete, id.String())
	return nil
}

func (s *Store) CustomerNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	return s.nameExists(ctx, "customers", name, excludeID)
}

// ---- Products ----

const productColumns = `id, name, hsn, created_at, updated_at`

func scanProduct(row rowScanner) (business.Product, error) {
	var p business.Product
	err := row.Scan(&p.ID, &p.Name, &p.HSN, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return business.Product{}, translateErr(err)
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product business.Product) (business.Product, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO products (id, app_id, name, hsn)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productColumns,
		product.ID, s.appID, product.Name, product.HSN)

	created, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Product{}, ErrDuplicateName
		}
		return business.Product{}, err
	}
	s.publish(constants.CollectionProducts, OpCreate, created.ID.String())
	return created, nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (business.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND app_id = $2`, id, s.appID)
	return scanProduct(row)
}

func (s *Store) ListProducts(ctx context.Context) ([]business.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE app_id = $1 ORDER BY lower(name)`, s.appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []business.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, product business.Product) (business.Product, error) {
	row := s.pool.QueryRow(ctx, `UPDATE products SET name = $3, hsn = $4, updated_at = now()
		WHERE id = $1 AND app_id = $2
		RETURNING `+productColumns,
		product.ID, s.appID, product.Name, product.HSN)

	updated, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Product{}, ErrDuplicateName
		}
		return business.Product{}, err
	}
	s.publish(constants.CollectionProducts, OpUpdate, updated.ID.String())
	return updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND app_id = $2`, id, s.appID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(constants.CollectionProducts, OpDelete, id.String())
	return nil
}

func (s *Store) ProductNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	return s.nameExists(ctx, "products", name, excludeID)
}

// ---- Partners ----

const partnerColumns = `id, name, created_at, updated_at`

func scanPartner(row rowScanner) (business.Partner, error) {
	var p business.Partner
	err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return business.Partner{}, translateErr(err)
	}
	return p, nil
}

func (s *Store) CreatePartner(ctx context.Context, partner business.Partner) (business.Partner, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO partners (id, app_id, name)
		VALUES ($1, $2, $3)
		RETURNING `+partnerColumns,
		partner.ID, s.appID, partner.Name)

	created, err := scanPartner(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Partner{}, ErrDuplicateName
		}
		return business.Partner{}, err
	}
	s.publish(constants.CollectionPartners, OpCreate, created.ID.String())
	return created, nil
}

func (s *Store) GetPartner(ctx context.Context, id uuid.UUID) (business.Partner, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE id = $1 AND app_id = $2`, id, s.appID)
	return scanPartner(row)
}

func (s *Store) ListPartners(ctx context.Context) ([]business.Partner, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE app_id = $1 ORDER BY lower(name)`, s.appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partners := []business.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (s *Store) UpdatePartner(ctx context.Context, partner business.Partner) (business.Partner, error) {
	row := s.pool.QueryRow(ctx, `UPDATE partners SET name = $3, updated_at = now()
		WHERE id = $1 AND app_id = $2
		RETURNING `+partnerColumns,
		partner.ID, s.appID, partner.Name)

	updated, err := scanPartner(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Partner{}, ErrDuplicateName
		}
		return business.Partner{}, err
	}
	s.publish(constants.CollectionPartners, OpUpdate, updated.ID.String())
	return updated, nil
}

func (s *Store) DeletePartner(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM partners WHERE id = $1 AND app_id = $2`, id, s.appID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(constants.CollectionPartners, OpDelete, id.String())
	return nil
}

func (s *Store) PartnerNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	return s.nameExists(ctx, "partners", name, excludeID)
}
