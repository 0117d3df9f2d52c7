package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/craft_store/internal/cart"
	"github.com/Skotchmaster/craft_store/internal/events"
	"github.com/Skotchmaster/craft_store/internal/mykafka"
	"github.com/Skotchmaster/craft_store/internal/order"
	"github.com/Skotchmaster/craft_store/internal/repo"
	"github.com/Skotchmaster/craft_store/internal/search"
	"github.com/Skotchmaster/craft_store/pkg/config"
	"github.com/Skotchmaster/craft_store/pkg/db"
)

// app holds every long-lived dependency built from config.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	db       *gorm.DB
	repo     *repo.GormRepo
	carts    *cart.Store
	orders   *order.Lifecycle
	producer *mykafka.Producer
	index    *search.OrderIndex
}

func newApp(ctx context.Context, cfg config.Config, l *slog.Logger, withIntegrations bool) (*app, error) {
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db init: %w", err)
	}

	a := &app{cfg: cfg, log: l, db: gdb, repo: repo.New(gdb)}

	var publisher events.Publisher = events.Nop{}
	var indexer order.Indexer
	if withIntegrations {
		publisher = a.initKafka(initCtx)
		if a.index = a.initSearch(initCtx); a.index != nil {
			indexer = a.index
		}
	}

	a.orders = order.NewLifecycle(a.repo, nil, order.Options{
		Publisher:      publisher,
		Indexer:        indexer,
		TaxPercent:     cfg.TaxPercent,
		DepositPercent: cfg.DepositPercent,
		MinLeadDays:    cfg.MinLeadBusinessDays,
	})
	a.carts = cart.NewStore(a.repo, a.orders.Ledger, publisher)
	a.orders.Carts = a.carts
	return a, nil
}

// initKafka falls back to a no-op publisher when no brokers are configured.
func (a *app) initKafka(ctx context.Context) events.Publisher {
	if len(a.cfg.KafkaBrokers) == 0 {
		a.log.Warn("kafka disabled", "reason", "KAFKA_BROKERS empty")
		return events.Nop{}
	}

	if err := mykafka.EnsureTopics(ctx, a.cfg.KafkaBrokers[0], events.TopicOrders, events.TopicCarts, events.TopicStock); err != nil {
		a.log.Warn("kafka ensure topics", "error", err)
	}

	p, err := mykafka.NewProducer(a.cfg.KafkaBrokers)
	if err != nil {
		a.log.Warn("kafka disabled", "error", err)
		return events.Nop{}
	}
	a.producer = p
	return p
}

func (a *app) initSearch(ctx context.Context) *search.OrderIndex {
	if a.cfg.ESURL == "" {
		a.log.Warn("search disabled", "reason", "ES_URL empty")
		return nil
	}

	es, err := search.NewClient(ctx, a.cfg, a.log)
	if err != nil {
		a.log.Warn("search disabled", "error", err)
		return nil
	}

	idx := search.NewOrderIndex(es, a.cfg.ESOrderIndex)
	if err := idx.EnsureIndex(ctx); err != nil {
		a.log.Warn("ensure order index", "error", err)
	}
	return idx
}

func (a *app) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Error("kafka close error", "error", err)
		}
	}
	if err := db.Close(a.db); err != nil {
		a.log.Error("db close error", "error", err)
	}
}
