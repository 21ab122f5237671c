package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tracktide/core/internal/models"
	pkgcron "github.com/tracktide/core/internal/pkg/cron"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "purge_revoked_tokens",
		Description: "delete access tokens revoked more than 30 days ago",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -30)
			result := db.Unscoped().
				Where("revoked_at IS NOT NULL AND revoked_at < ?", cutoff).
				Delete(&models.AccessToken{})
			if result.Error != nil {
				cronLogger.Warn("token purge failed", zap.Error(result.Error))
				return result.Error
			}
			cronLogger.Info(fmt.Sprintf("token purge done, %d rows removed", result.RowsAffected))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "purge_soft_deleted",
		Description: "hard-delete rows soft-deleted more than 90 days ago",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -90)
			total := int64(0)
			for _, model := range []interface{}{
				&models.SessionModel{},
				&models.ProjectModel{},
			} {
				result := db.Unscoped().
					Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
					Delete(model)
				if result.Error != nil {
					cronLogger.Warn("soft-delete purge failed", zap.Error(result.Error))
					return result.Error
				}
				total += result.RowsAffected
			}
			cronLogger.Info(fmt.Sprintf("soft-delete purge done, %d rows removed", total))
			return nil
		},
	})
}
