package outbox

import (
	"context"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/anyproto/any-sync/util/periodicsync"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/andrade-gabriel/ahocultural/db"
	"github.com/andrade-gabriel/ahocultural/domain"
	"github.com/andrade-gabriel/ahocultural/metrics"
	"github.com/andrade-gabriel/ahocultural/notifier"
)

const CName = "outbox"

var log = logger.NewNamed(CName)

const createTable = `
CREATE TABLE IF NOT EXISTS outbox (
	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	entity_id VARCHAR(255) NOT NULL,
	kind VARCHAR(32) NOT NULL,
	status ENUM('pending','sent') NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	sent_at TIMESTAMP NULL,
	KEY idx_outbox_status (status, id)
)`

func New() Outbox {
	return &outbox{}
}

// Outbox decouples the durable entity write from the change publish.
// Write handlers enqueue a pending row right after a successful store
// write; the relay drains pending rows to the notifier in the
// background. Delivery is at-least-once: a crash between publish and the
// sent mark re-publishes the row on the next sweep, which the ingestor
// absorbs by re-reading the canonical entity.
type Outbox interface {
	app.ComponentRunnable

	Enqueue(ctx context.Context, change domain.Change) error
}

type outbox struct {
	conf     Config
	db       db.Database
	notifier notifier.Notifier
	relay    periodicsync.PeriodicSync
}

func (o *outbox) Init(a *app.App) (err error) {
	o.conf = a.MustComponent("config").(configSource).GetOutbox()
	o.db = a.MustComponent(db.CName).(db.Database)
	o.notifier = a.MustComponent(notifier.CName).(notifier.Notifier)
	interval := o.conf.RelayIntervalSecs
	if interval <= 0 {
		interval = 5
	}
	o.relay = periodicsync.NewPeriodicSync(interval, time.Minute, o.Drain, log)
	return
}

func (o *outbox) Name() string {
	return CName
}

func (o *outbox) Run(ctx context.Context) (err error) {
	if _, err = o.db.DB().ExecContext(ctx, createTable); err != nil {
		return
	}
	o.relay.Run()
	return
}

func (o *outbox) Enqueue(ctx context.Context, change domain.Change) error {
	_, err := o.db.DB().ExecContext(ctx,
		"INSERT INTO outbox (entity_id, kind) VALUES (?, ?)",
		change.ID, string(change.Kind))
	return err
}

type row struct {
	Id       int64  `db:"id"`
	EntityId string `db:"entity_id"`
	Kind     string `db:"kind"`
}

// Drain publishes one batch of pending rows. Rows are locked for the
// duration of the sweep so concurrent instances do not double-publish in
// the steady state. A failed publish stops the batch; rows already
// published are still marked sent.
func (o *outbox) Drain(ctx context.Context) error {
	batch := o.conf.BatchSize
	if batch <= 0 {
		batch = 100
	}
	var pubErr error
	err := o.db.Tx(ctx, func(tx *sqlx.Tx) error {
		var rows []row
		if err := tx.SelectContext(ctx, &rows,
			"SELECT id, entity_id, kind FROM outbox WHERE status = 'pending' ORDER BY id LIMIT ? FOR UPDATE", batch); err != nil {
			return err
		}
		var sent []int64
		for _, r := range rows {
			change := domain.Change{ID: r.EntityId, Kind: domain.Kind(r.Kind)}
			if pubErr = o.notifier.Publish(ctx, change); pubErr != nil {
				break
			}
			metrics.ChangesPublishedTotal.Inc()
			sent = append(sent, r.Id)
		}
		if len(sent) == 0 {
			return nil
		}
		query, args, err := sqlx.In("UPDATE outbox SET status = 'sent', sent_at = NOW() WHERE id IN (?)", sent)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
		return err
	})
	if err != nil {
		return err
	}
	if pubErr != nil {
		log.Warn("outbox relay: publish failed, rows left pending", zap.Error(pubErr))
		return pubErr
	}
	return nil
}

func (o *outbox) Close(ctx context.Context) (err error) {
	if o.relay != nil {
		o.relay.Close()
	}
	return
}
