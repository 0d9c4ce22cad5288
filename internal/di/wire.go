//go:build wireinject
// +build wireinject

package di

import (
	"bandarscan/pkg/config"
	"bandarscan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Upstream and persistence
		ProvideFeed,
		ProvideArchive,
		ProvidePublisher,

		// Pipeline
		ProvideComposer,
		ProvideScanner,
		ProvideScanCache,
		ProvideArchiver,

		// HTTP surface
		ProvideStreamHub,
		ProvideScanHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
