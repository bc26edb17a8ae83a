// Package obslog wires the dual-logger idiom used throughout vaultmesh:
// a *logrus.Logger for structured per-operation logging (put/get/pay
// attempts, retries) and zap's global sugared logger for the
// self-encryption hot path.
package obslog

import (
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/synnergy-network/vaultmesh/pkg/utils"
)

// New builds the operation logger, level controlled by VAULTMESH_LOG_LEVEL.
func New() *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(utils.EnvOrDefault("VAULTMESH_LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	lg.SetLevel(level)
	return lg
}

// HotPath returns zap's global sugared logger, the same one selfencrypt
// logs to. Call Init once during process startup if a non-default zap
// logger is desired; otherwise zap.L() falls back to a no-op logger.
func HotPath() *zap.SugaredLogger {
	return zap.L().Sugar()
}

// Init installs lg as the global zap logger used by HotPath.
func Init(lg *zap.Logger) {
	zap.ReplaceGlobals(lg)
}
