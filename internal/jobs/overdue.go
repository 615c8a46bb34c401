// Package jobs holds the background maintenance routines the API runs on a
// schedule.
package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestor/internal/models"
)

// MarkOverdue flags open payables, receivables and installments whose due
// date has passed as atrasado. It is safe to run repeatedly.
func MarkOverdue(db *gorm.DB, lg *zap.SugaredLogger) {
	hoje := time.Now().Truncate(24 * time.Hour)
	aberto := []models.StatusPagamento{models.PagamentoPendente, models.PagamentoParcial}

	pagar := db.Model(&models.ContaPagar{}).
		Where("status IN ? AND data_vencimento < ?", aberto, hoje).
		Update("status", models.PagamentoAtrasado)
	receber := db.Model(&models.ContaReceber{}).
		Where("status IN ? AND data_vencimento < ?", aberto, hoje).
		Update("status", models.PagamentoAtrasado)
	// installments of a settled conta stay as they are
	parcPagar := db.Model(&models.Parcela{}).
		Where("status = ? AND data_vencimento < ? AND conta_type = ? AND conta_id IN (?)",
			models.PagamentoPendente, hoje, models.ContaTypePagar,
			db.Model(&models.ContaPagar{}).Select("id").Where("status <> ?", models.PagamentoPago)).
		Update("status", models.PagamentoAtrasado)
	parcReceber := db.Model(&models.Parcela{}).
		Where("status = ? AND data_vencimento < ? AND conta_type = ? AND conta_id IN (?)",
			models.PagamentoPendente, hoje, models.ContaTypeReceber,
			db.Model(&models.ContaReceber{}).Select("id").Where("status <> ?", models.PagamentoPago)).
		Update("status", models.PagamentoAtrasado)

	if pagar.Error != nil || receber.Error != nil || parcPagar.Error != nil || parcReceber.Error != nil {
		lg.Errorw("overdue sweep failed",
			"pagar", pagar.Error, "receber", receber.Error,
			"parcelas", parcPagar.Error, "parcelas_receber", parcReceber.Error)
		return
	}
	if n := pagar.RowsAffected + receber.RowsAffected + parcPagar.RowsAffected + parcReceber.RowsAffected; n > 0 {
		lg.Infow("overdue sweep", "marcadas", n)
	}
}

// Start schedules the daily sweeps and returns the running cron so the caller
// can stop it on shutdown.
func Start(db *gorm.DB, lg *zap.SugaredLogger) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("5 0 * * *", func() { MarkOverdue(db, lg) })
	if err != nil {
		lg.Errorw("cron schedule", "err", err)
	}
	c.Start()
	// catch anything that went overdue while the service was down
	MarkOverdue(db, lg)
	return c
}
