package tracker

import "github.com/kWAYTV/rust-decay-notification-app/pkg/model"

// Re-export types from model package for convenience.
type (
	Container     = model.Container
	ResourceKind  = model.ResourceKind
	ResourceStock = model.ResourceStock
	StockInput    = model.StockInput
	AlertEvent    = model.AlertEvent
)
