package scanner

import (
	"github.com/google/wire"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
)

// Module provides the scanner boundary for fx injection.
var Module = fx.Module("scanner",
	fx.Provide(ProvideScanner),
)

// ProviderSet provides the scanner boundary for Wire injection.
var ProviderSet = wire.NewSet(ProvideScanner)

// ProvideScanner binds the feed implementation to the Scanner interface.
func ProvideScanner(cfg *config.Config, log *zap.Logger) Scanner {
	return NewFeedScanner(cfg, log)
}
