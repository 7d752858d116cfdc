//go:build wireinject
// +build wireinject

package di

import (
	"BarPulse/pkg/config"
	"BarPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideQuotes,
		ProvideFillRecorder,
		ProvideExecution,

		// Trading state
		ProvidePortfolio,
		ProvideStrategies,

		// Pipeline stores
		ProvideNotifyChannel,
		ProvideRawSeries,
		ProvideBarSeries,
		ProvideIndicatorSeries,
		ProvideInputStore,
		ProvideDataStore,
		ProvideAgent,

		// Optional snapshot archiver
		ProvideHistoryClient,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
