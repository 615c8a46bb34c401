package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gestor/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestMarkOverdue(t *testing.T) {
	db := testDB(t)
	lg := zap.NewNop().Sugar()
	ontem := time.Now().AddDate(0, 0, -1)

	aberta := models.ContaPagar{
		Descricao: "Luz", ValorOriginal: 100,
		DataEmissao: ontem, DataVencimento: ontem,
		Status: models.PagamentoPendente,
		Parcelas: []models.Parcela{
			{NumeroParcela: 1, TotalParcelas: 1, Valor: 100, DataVencimento: ontem, Status: models.PagamentoPendente},
		},
	}
	require.NoError(t, db.Create(&aberta).Error)

	paga := models.ContaPagar{
		Descricao: "Água", ValorOriginal: 50, ValorPago: 50,
		DataEmissao: ontem, DataVencimento: ontem,
		Status: models.PagamentoPago,
		Parcelas: []models.Parcela{
			{NumeroParcela: 1, TotalParcelas: 1, Valor: 50, DataVencimento: ontem, Status: models.PagamentoPendente},
		},
	}
	require.NoError(t, db.Create(&paga).Error)

	MarkOverdue(db, lg)

	var c models.ContaPagar
	require.NoError(t, db.First(&c, aberta.ID).Error)
	assert.Equal(t, models.PagamentoAtrasado, c.Status)

	var ps []models.Parcela
	require.NoError(t, db.Where("conta_id = ? AND conta_type = ?", aberta.ID, models.ContaTypePagar).
		Find(&ps).Error)
	require.Len(t, ps, 1)
	assert.Equal(t, models.PagamentoAtrasado, ps[0].Status)

	// uma conta já liquidada não tem parcelas marcadas
	require.NoError(t, db.Where("conta_id = ? AND conta_type = ?", paga.ID, models.ContaTypePagar).
		Find(&ps).Error)
	require.Len(t, ps, 1)
	assert.Equal(t, models.PagamentoPendente, ps[0].Status)

	c = models.ContaPagar{}
	require.NoError(t, db.First(&c, paga.ID).Error)
	assert.Equal(t, models.PagamentoPago, c.Status)
}
