package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"insightmart/internal/core/staging"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/logger"
	"insightmart/internal/services/build/domain"

	"github.com/jmoiron/sqlx"
	sf "github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig addresses the warehouse holding the raw tables
type SnowflakeConfig struct {
	Account   string `env:"SNOWFLAKE_ACCOUNT" validate:"required"`
	User      string `env:"SNOWFLAKE_USER" validate:"required"`
	Password  string `env:"SNOWFLAKE_PASSWORD" validate:"required"`
	Database  string `env:"SNOWFLAKE_DATABASE" validate:"required"`
	Schema    string `env:"SNOWFLAKE_SCHEMA"`
	Warehouse string `env:"SNOWFLAKE_WAREHOUSE" validate:"required"`
	Role      string `env:"SNOWFLAKE_ROLE"`

	Tables SnowflakeTables

	QueryTimeout time.Duration
	MaxOpenConns int
}

// SnowflakeTables names the raw tables; the defaults match the ingestion loader
type SnowflakeTables struct {
	Customers string `env:"SNOWFLAKE_CUSTOMERS_TABLE" validate:"required,excludesall=;'"`
	Sales     string `env:"SNOWFLAKE_SALES_TABLE" validate:"required,excludesall=;'"`
	Coupons   string `env:"SNOWFLAKE_COUPONS_TABLE" validate:"required,excludesall=;'"`
	Taxes     string `env:"SNOWFLAKE_TAXES_TABLE" validate:"required,excludesall=;'"`
	Spend     string `env:"SNOWFLAKE_SPEND_TABLE" validate:"required,excludesall=;'"`
}

// DefaultSnowflakeTables are the table names the ingestion loader creates
var DefaultSnowflakeTables = SnowflakeTables{
	Customers: "CUSTOMERSDATA",
	Sales:     "ONLINE_SALES",
	Coupons:   "DISCOUNT_COUPON",
	Taxes:     "TAX_AMOUNT",
	Spend:     "MARKETING_SPEND",
}

// SnowflakeSource reads the raw tables from Snowflake. It connects on first Load
type SnowflakeSource struct {
	cfg SnowflakeConfig

	mu sync.Mutex
	db *sqlx.DB
}

var _ domain.Source = (*SnowflakeSource)(nil)

// NewSnowflakeSource returns an unconnected source
func NewSnowflakeSource(cfg SnowflakeConfig) *SnowflakeSource { return &SnowflakeSource{cfg: cfg} }

func (s *SnowflakeSource) conn(ctx context.Context) (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := openSnowflake(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

// dsnConfig carries the statement timeout as a session parameter so every pooled
// connection gets it
func dsnConfig(cfg SnowflakeConfig) *sf.Config {
	c := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: sf.AuthTypeSnowflake,
	}
	if cfg.QueryTimeout > 0 {
		secs := strconv.Itoa(int(cfg.QueryTimeout.Seconds()))
		c.Params = map[string]*string{"STATEMENT_TIMEOUT_IN_SECONDS": &secs}
	}
	return c
}

func openSnowflake(ctx context.Context, cfg SnowflakeConfig) (*sqlx.DB, error) {
	dsn, err := sf.DSN(dsnConfig(cfg))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "snowflake: build dsn")
	}
	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "snowflake: open")
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "snowflake: ping")
	}
	logger.Named("snowflake").Info().Str("account", cfg.Account).Str("database", cfg.Database).Str("warehouse", cfg.Warehouse).Msg("connected")
	return db, nil
}

// Close releases the pool if one was opened
func (s *SnowflakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type sfCustomer struct {
	CustomerID   sql.NullString `db:"CUSTOMERID"`
	Gender       sql.NullString `db:"GENDER"`
	Location     sql.NullString `db:"LOCATION"`
	TenureMonths sql.NullString `db:"TENURE_MONTHS"`
}

type sfSale struct {
	CustomerID         sql.NullString `db:"CUSTOMERID"`
	TransactionID      sql.NullString `db:"TRANSACTION_ID"`
	TransactionDate    sql.NullString `db:"TRANSACTION_DATE"`
	ProductSKU         sql.NullString `db:"PRODUCT_SKU"`
	ProductDescription sql.NullString `db:"PRODUCT_DESCRIPTION"`
	ProductCategory    sql.NullString `db:"PRODUCT_CATEGORY"`
	Quantity           sql.NullString `db:"QUANTITY"`
	AvgPrice           sql.NullString `db:"AVG_PRICE"`
	DeliveryCharges    sql.NullString `db:"DELIVERY_CHARGES"`
	CouponStatus       sql.NullString `db:"COUPON_STATUS"`
}

type sfCoupon struct {
	Month           sql.NullString `db:"MONTH"`
	ProductCategory sql.NullString `db:"PRODUCT_CATEGORY"`
	CouponCode      sql.NullString `db:"COUPON_CODE"`
	DiscountPct     sql.NullString `db:"DISCOUNT_PCT"`
}

type sfTax struct {
	ProductCategory sql.NullString `db:"PRODUCT_CATEGORY"`
	GST             sql.NullString `db:"GST"`
}

type sfSpend struct {
	Date         sql.NullString `db:"DATE"`
	OfflineSpend sql.NullString `db:"OFFLINE_SPEND"`
	OnlineSpend  sql.NullString `db:"ONLINE_SPEND"`
}

// sfQueries selects each table with every column cast to text. Snowflake keeps no load
// order, so rows come back sorted by all selected columns and first-row-wins rules pick
// the lowest row rather than the first one in the source file
type sfQueries struct {
	Customers, Sales, Coupons, Taxes, Spend string
}

func queriesFor(t SnowflakeTables) sfQueries {
	return sfQueries{
		Customers: fmt.Sprintf(`SELECT CUSTOMERID::STRING AS CUSTOMERID, GENDER, LOCATION, TENURE_MONTHS::STRING AS TENURE_MONTHS
			FROM %s ORDER BY CUSTOMERID, LOCATION, TENURE_MONTHS, GENDER`, t.Customers),
		Sales: fmt.Sprintf(`SELECT CUSTOMERID::STRING AS CUSTOMERID, TRANSACTION_ID::STRING AS TRANSACTION_ID,
			TRANSACTION_DATE::STRING AS TRANSACTION_DATE, PRODUCT_SKU, PRODUCT_DESCRIPTION, PRODUCT_CATEGORY,
			QUANTITY::STRING AS QUANTITY, AVG_PRICE::STRING AS AVG_PRICE, DELIVERY_CHARGES::STRING AS DELIVERY_CHARGES,
			COUPON_STATUS
			FROM %s ORDER BY TRANSACTION_ID, PRODUCT_SKU, TRANSACTION_DATE, CUSTOMERID, PRODUCT_DESCRIPTION,
			PRODUCT_CATEGORY, QUANTITY, AVG_PRICE, DELIVERY_CHARGES, COUPON_STATUS`, t.Sales),
		Coupons: fmt.Sprintf(`SELECT MONTH, PRODUCT_CATEGORY, COUPON_CODE, DISCOUNT_PCT::STRING AS DISCOUNT_PCT
			FROM %s ORDER BY MONTH, PRODUCT_CATEGORY, COUPON_CODE, DISCOUNT_PCT`, t.Coupons),
		Taxes: fmt.Sprintf(`SELECT PRODUCT_CATEGORY, GST::STRING AS GST
			FROM %s ORDER BY PRODUCT_CATEGORY, GST`, t.Taxes),
		Spend: fmt.Sprintf(`SELECT DATE::STRING AS DATE, OFFLINE_SPEND::STRING AS OFFLINE_SPEND, ONLINE_SPEND::STRING AS ONLINE_SPEND
			FROM %s ORDER BY DATE, OFFLINE_SPEND, ONLINE_SPEND`, t.Spend),
	}
}

// sfBatch is one load of every table, as scanned
type sfBatch struct {
	customers []sfCustomer
	sales     []sfSale
	coupons   []sfCoupon
	taxes     []sfTax
	spend     []sfSpend
}

// Load selects every source table
func (s *SnowflakeSource) Load(ctx context.Context) (staging.Raw, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return staging.Raw{}, err
	}
	tables := s.cfg.Tables
	if tables == (SnowflakeTables{}) {
		tables = DefaultSnowflakeTables
	}
	q := queriesFor(tables)

	var b sfBatch
	for _, step := range []struct {
		dst   any
		table string
		query string
	}{
		{&b.customers, tables.Customers, q.Customers},
		{&b.sales, tables.Sales, q.Sales},
		{&b.coupons, tables.Coupons, q.Coupons},
		{&b.taxes, tables.Taxes, q.Taxes},
		{&b.spend, tables.Spend, q.Spend},
	} {
		if err := db.SelectContext(ctx, step.dst, step.query); err != nil {
			return staging.Raw{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "snowflake: select %s", step.table)
		}
	}
	return b.raw(), nil
}

// raw maps scanned rows to staging input; SQL NULL becomes the empty string
func (b sfBatch) raw() staging.Raw {
	var raw staging.Raw
	for _, c := range b.customers {
		raw.Customers = append(raw.Customers, staging.RawCustomer{
			CustomerID: c.CustomerID.String, Gender: c.Gender.String, Location: c.Location.String, TenureMonths: c.TenureMonths.String,
		})
	}
	for _, x := range b.sales {
		raw.Sales = append(raw.Sales, staging.RawSale{
			CustomerID: x.CustomerID.String, TransactionID: x.TransactionID.String, TransactionDate: x.TransactionDate.String,
			ProductSKU: x.ProductSKU.String, ProductDescription: x.ProductDescription.String, ProductCategory: x.ProductCategory.String,
			Quantity: x.Quantity.String, AvgPrice: x.AvgPrice.String, DeliveryCharges: x.DeliveryCharges.String, CouponStatus: x.CouponStatus.String,
		})
	}
	for _, x := range b.coupons {
		raw.Coupons = append(raw.Coupons, staging.RawCoupon{
			Month: x.Month.String, ProductCategory: x.ProductCategory.String, CouponCode: x.CouponCode.String, DiscountPct: x.DiscountPct.String,
		})
	}
	for _, x := range b.taxes {
		raw.Taxes = append(raw.Taxes, staging.RawTax{ProductCategory: x.ProductCategory.String, GST: x.GST.String})
	}
	for _, x := range b.spend {
		raw.Spend = append(raw.Spend, staging.RawSpend{Date: x.Date.String, OfflineSpend: x.OfflineSpend.String, OnlineSpend: x.OnlineSpend.String})
	}
	return raw
}
