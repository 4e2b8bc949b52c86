package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing adds otelgorm spans to every query of db.
// Query variables are left out of the recorded statements.
func RegisterDBTracing(db *gorm.DB, dbSystem string, logger *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}
	if logger != nil {
		logger.Info("Database tracing enabled", zap.String("db_system", dbSystem))
	}
	return nil
}
