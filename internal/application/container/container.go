package container

import (
	"context"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/application/service"
	"cryptotracker/internal/domain"
)

type Container struct {
	ctx       context.Context
	store     port.KVStore
	table     *domain.PriceTable
	maxAlerts int

	alertBook *service.AlertBook
	portfolio *service.Portfolio
	settings  *service.SettingsService
	evaluator *service.AlertEvaluator
}

func New(ctx context.Context, store port.KVStore, maxAlerts int) *Container {
	return &Container{
		ctx:       ctx,
		store:     store,
		table:     domain.NewPriceTable(),
		maxAlerts: maxAlerts,
	}
}

func (c *Container) Store() port.KVStore {
	return c.store
}

func (c *Container) PriceTable() *domain.PriceTable {
	return c.table
}

func (c *Container) AlertBook() *service.AlertBook {
	if c.alertBook == nil {
		c.alertBook = service.NewAlertBook(c.ctx, c.store, c.maxAlerts)
	}
	return c.alertBook
}

func (c *Container) Portfolio() *service.Portfolio {
	if c.portfolio == nil {
		c.portfolio = service.NewPortfolio(c.ctx, c.store)
	}
	return c.portfolio
}

func (c *Container) SettingsService() *service.SettingsService {
	if c.settings == nil {
		c.settings = service.NewSettingsService(c.ctx, c.store)
	}
	return c.settings
}

// AlertEvaluator is built on first call; later calls ignore notifier.
func (c *Container) AlertEvaluator(notifier port.Notifier) *service.AlertEvaluator {
	if c.evaluator == nil {
		c.evaluator = service.NewAlertEvaluator(c.AlertBook(), c.table, notifier)
	}
	return c.evaluator
}
