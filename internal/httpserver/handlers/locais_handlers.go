package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gestor/internal/models"
)

func ListLocaisEstoque(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []models.LocalEstoque
		if err := db.Where("ativo = ?", true).Order("nome").Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateLocalEstoque(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var l models.LocalEstoque
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(l.Nome) == "" {
			respondDetail(w, http.StatusBadRequest, "nome obrigatorio")
			return
		}
		l.ID = 0
		l.Ativo = true
		err := db.Transaction(func(tx *gorm.DB) error {
			if l.Padrao {
				if err := tx.Model(&models.LocalEstoque{}).
					Where("padrao = ?", true).Update("padrao", false).Error; err != nil {
					return err
				}
			}
			return tx.Create(&l).Error
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, l)
	}
}

func UpdateLocalEstoque(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var l models.LocalEstoque
		if err := db.First(&l, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Local não encontrado")
			return
		}
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		delete(patch, "id")
		delete(patch, "padrao")
		if err := db.Model(&l).Updates(patch).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, l)
	}
}

func DeleteLocalEstoque(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var l models.LocalEstoque
		if err := db.First(&l, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Local não encontrado")
			return
		}
		if l.Padrao {
			respondDetail(w, http.StatusBadRequest, "Local padrão não pode ser desativado")
			return
		}
		if err := db.Model(&l).Update("ativo", false).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Local desativado com sucesso"})
	}
}

// DefinirLocalPadrao makes one location the default; the flag is exclusive.
func DefinirLocalPadrao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var l models.LocalEstoque
		if err := db.First(&l, "id = ? AND ativo = ?", id, true).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Local não encontrado")
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.LocalEstoque{}).
				Where("padrao = ?", true).Update("padrao", false).Error; err != nil {
				return err
			}
			return tx.Model(&l).Update("padrao", true).Error
		})
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Local padrão atualizado"})
	}
}

// EstoqueDoLocal lists the per-material balances held at one location.
func EstoqueDoLocal(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var local models.LocalEstoque
		if err := db.First(&local, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Local não encontrado")
			return
		}
		var saldos []models.EstoquePorLocal
		if err := db.Where("local_estoque_id = ? AND quantidade > 0", id).
			Find(&saldos).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]map[string]any, 0, len(saldos))
		for _, s := range saldos {
			var m models.Material
			if err := db.First(&m, "id = ?", s.MaterialID).Error; err != nil {
				continue
			}
			out = append(out, map[string]any{
				"material_id":    m.ID,
				"codigo":         m.Codigo,
				"nome":           m.Nome,
				"unidade_medida": m.UnidadeMedida,
				"quantidade":     s.Quantidade,
			})
		}
		respondJSON(w, map[string]any{"local": local, "estoque": out})
	}
}

type transferirReq struct {
	MaterialID int     `json:"material_id"`
	DestinoID  int     `json:"destino_id"`
	Quantidade float64 `json:"quantidade"`
	Observacao string  `json:"observacao"`
}

// TransferirEstoque moves a quantity of a material from one location to
// another. The material's total balance is unchanged; a transfer movement is
// recorded for the audit trail.
func TransferirEstoque(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origemID, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req transferirReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Quantidade <= 0 {
			respondDetail(w, http.StatusBadRequest, "Quantidade deve ser maior que zero")
			return
		}
		if req.DestinoID == origemID {
			respondDetail(w, http.StatusBadRequest, "Local de origem e destino devem ser diferentes")
			return
		}
		var origem, destino models.LocalEstoque
		if err := db.First(&origem, "id = ? AND ativo = ?", origemID, true).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Local de origem não encontrado")
			return
		}
		if err := db.First(&destino, "id = ? AND ativo = ?", req.DestinoID, true).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Local de destino não encontrado")
			return
		}
		var material models.Material
		if err := db.First(&material, "id = ?", req.MaterialID).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Material não encontrado")
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			var saldo models.EstoquePorLocal
			if err := tx.Where("local_estoque_id = ? AND material_id = ?", origemID, req.MaterialID).
				First(&saldo).Error; err != nil || saldo.Quantidade < req.Quantidade {
				return gorm.ErrInvalidData
			}
			if err := tx.Model(&saldo).
				Update("quantidade", gorm.Expr("quantidade - ?", req.Quantidade)).Error; err != nil {
				return err
			}
			dest := models.EstoquePorLocal{
				LocalEstoqueID: req.DestinoID,
				MaterialID:     req.MaterialID,
				Quantidade:     0,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&dest).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.EstoquePorLocal{}).
				Where("local_estoque_id = ? AND material_id = ?", req.DestinoID, req.MaterialID).
				Update("quantidade", gorm.Expr("quantidade + ?", req.Quantidade)).Error; err != nil {
				return err
			}
			mov := models.MovimentoEstoque{
				MaterialID:    req.MaterialID,
				TipoMovimento: models.MovimentoTransferencia,
				Quantidade:    req.Quantidade,
				DataMovimento: time.Now(),
				Observacao:    req.Observacao,
			}
			return tx.Create(&mov).Error
		})
		if err != nil {
			if err == gorm.ErrInvalidData {
				respondDetail(w, http.StatusBadRequest, "Estoque insuficiente no local de origem")
				return
			}
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("transferencia de estoque",
			"material", material.Codigo, "origem", origem.Nome, "destino", destino.Nome, "qtd", req.Quantidade)
		respondJSON(w, map[string]any{
			"message":       "Transferência realizada com sucesso",
			"material":      material.Nome,
			"origem":        origem.Nome,
			"destino":       destino.Nome,
			"quantidade":    req.Quantidade,
			"estoque_total": material.EstoqueAtual,
		})
	}
}
