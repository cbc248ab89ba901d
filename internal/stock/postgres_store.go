package stock

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// PostgresStore implements Store against Postgres. The sale commit runs in
// a single transaction: a conditional decrement per line, the sale insert,
// and the outbox row either all land or none do.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cred *Credentials) (*PostgresStore, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{
		MigrationsTable: "stock_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (s *PostgresStore) ProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `SELECT id, barcode, name, brand, sale_price, quantity
	          FROM products WHERE barcode = $1`

	var p domain.Product
	var price string
	err := s.db.QueryRowContext(ctx, query, barcode).Scan(
		&p.ID,
		&p.Barcode,
		&p.Name,
		&p.Brand,
		&price,
		&p.Quantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by barcode: %w", err)
	}

	p.SalePrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse sale price: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreateSale(ctx context.Context, req *domain.SaleRequest) (*domain.Sale, error) {
	if err := validateSale(req); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sale transaction: %w", err)
	}
	defer tx.Rollback()

	// Conditional decrement per line. A zero-row update means the product
	// is missing or short on stock; all offenders are collected before the
	// rollback so the till learns the full list.
	decrement := `UPDATE products SET quantity = quantity - $2
	              WHERE id = $1 AND quantity >= $2`

	var conflicts []string
	for _, item := range req.Items {
		res, e2 := tx.ExecContext(ctx, decrement, item.ProductID, item.Quantity)
		if e2 != nil {
			return nil, fmt.Errorf("decrement stock for %s: %w", item.ProductID, e2)
		}
		affected, e3 := res.RowsAffected()
		if e3 != nil {
			return nil, fmt.Errorf("rows affected for %s: %w", item.ProductID, e3)
		}
		if affected == 0 {
			conflicts = append(conflicts, item.ProductID)
		}
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{ProductIDs: conflicts}
	}

	sale := newSale(req)
	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal sale items: %w", err)
	}

	insertSale := `INSERT INTO sales (id, items, subtotal, discount, final_amount, payment_method, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, e2 := tx.ExecContext(ctx, insertSale,
		sale.ID,
		itemsJSON,
		sale.Subtotal.StringFixed(domain.MoneyScale),
		sale.Discount.StringFixed(domain.MoneyScale),
		sale.FinalAmount.StringFixed(domain.MoneyScale),
		sale.PaymentMethod.String(),
		sale.CreatedAt,
	); e2 != nil {
		return nil, fmt.Errorf("insert sale: %w", e2)
	}

	payload, err := json.Marshal(sale)
	if err != nil {
		return nil, fmt.Errorf("marshal sale payload: %w", err)
	}
	insertEvent := `INSERT INTO sale_outbox (aggregate_id, event_type, payload, created_at)
	                VALUES ($1, $2, $3, $4)`
	if _, e2 := tx.ExecContext(ctx, insertEvent, sale.ID, "sale.committed", payload, sale.CreatedAt); e2 != nil {
		return nil, fmt.Errorf("insert outbox event: %w", e2)
	}

	if e2 := tx.Commit(); e2 != nil {
		return nil, fmt.Errorf("commit sale transaction: %w", e2)
	}
	return sale, nil
}

func (s *PostgresStore) SetStock(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (id, barcode, name, brand, sale_price, quantity)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO UPDATE SET
	              barcode = EXCLUDED.barcode,
	              name = EXCLUDED.name,
	              brand = EXCLUDED.brand,
	              sale_price = EXCLUDED.sale_price,
	              quantity = EXCLUDED.quantity`

	_, err := s.db.ExecContext(ctx, query,
		product.ID,
		product.Barcode,
		product.Name,
		product.Brand,
		product.SalePrice.StringFixed(domain.MoneyScale),
		product.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM sale_outbox WHERE processed = FALSE
	          ORDER BY id LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if e2 := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); e2 != nil {
			return nil, fmt.Errorf("scan outbox row: %w", e2)
		}
		events = append(events, &e)
	}
	if e2 := rows.Err(); e2 != nil {
		return nil, fmt.Errorf("row iteration error: %w", e2)
	}
	return events, nil
}

func (s *PostgresStore) MarkEventProcessed(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sale_outbox SET processed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
