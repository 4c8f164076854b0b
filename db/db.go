package db

import (
	"context"
	"time"

	"github.com/anyproto/any-sync/app"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

const CName = "db"

func New() Database {
	return &database{}
}

// Database holds the process-wide MySQL pool. It is created once at
// startup and handed to components through the app registry, never
// through package-level state.
type Database interface {
	app.ComponentRunnable

	DB() *sqlx.DB
	// Tx runs fn inside a transaction, rolling back on error and on
	// panic. The connection is always returned to the pool.
	Tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type database struct {
	conf Config
	db   *sqlx.DB
}

func (d *database) Init(a *app.App) (err error) {
	d.conf = a.MustComponent("config").(configSource).GetMysql()
	return
}

func (d *database) Name() string {
	return CName
}

func (d *database) Run(ctx context.Context) (err error) {
	if d.db, err = sqlx.Open("mysql", d.conf.DSN); err != nil {
		return
	}
	maxOpen, maxIdle := d.conf.MaxOpenConns, d.conf.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 15
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	d.db.SetMaxOpenConns(maxOpen)
	d.db.SetMaxIdleConns(maxIdle)
	d.db.SetConnMaxLifetime(30 * time.Minute)
	return d.db.PingContext(ctx)
}

func (d *database) DB() *sqlx.DB {
	return d.db
}

func (d *database) Tx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

func (d *database) Close(ctx context.Context) (err error) {
	if d.db != nil {
		return d.db.Close()
	}
	return
}
