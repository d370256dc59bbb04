package history

import (
	"github.com/google/wire"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
)

// Module provides the installation-history store for fx injection.
var Module = fx.Module("history",
	fx.Provide(ProvideStore),
)

// ProviderSet provides the same for Wire injection.
var ProviderSet = wire.NewSet(ProvideStore)

// ProvideStore binds the SQLite implementation to the Store interface.
func ProvideStore(cfg *config.Config, log *zap.Logger) (Store, error) {
	return Open(cfg, log)
}
