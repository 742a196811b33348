package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing adds a client span for every GORM statement, as a child of
// the span in the statement's context. Query variables are left out of the
// recorded SQL.
func RegisterDBTracing(db *gorm.DB, dbName string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("register gorm tracing: %w", err)
	}
	logger.Debug("Database tracing enabled", zap.String("db_name", dbName))
	return nil
}
