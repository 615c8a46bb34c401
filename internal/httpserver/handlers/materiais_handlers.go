package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestor/internal/auth"
	"gestor/internal/models"
)

// Categorias ------------------------------------------------------------------

func ListCategorias(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []models.CategoriaMaterial
		if err := db.Where("ativa = ?", true).Order("nome").Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateCategoria(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.CategoriaMaterial
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(c.Nome) == "" {
			respondDetail(w, http.StatusBadRequest, "nome obrigatorio")
			return
		}
		c.ID = 0
		c.Ativa = true
		if err := db.Create(&c).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, c)
	}
}

// Materiais -------------------------------------------------------------------

func ListMateriais(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Preload("Categoria").Order("nome")
		if r.URL.Query().Get("incluir_inativos") == "" {
			q = q.Where("ativo = ?", true)
		}
		if cat := r.URL.Query().Get("categoria_id"); cat != "" {
			q = q.Where("categoria_id = ?", cat)
		}
		var list []models.Material
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateMaterial(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m models.Material
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(m.Nome) == "" || strings.TrimSpace(m.UnidadeMedida) == "" {
			respondDetail(w, http.StatusBadRequest, "nome e unidade de medida obrigatorios")
			return
		}
		m.ID = 0
		m.Ativo = true
		if m.Codigo == "" {
			m.Codigo = nextCodigo(db, &models.Material{}, "MAT", 4)
		}
		if err := db.Create(&m).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("material criado", "codigo", m.Codigo, "nome", m.Nome)
		respondJSON(w, m)
	}
}

func GetMaterial(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var m models.Material
		if err := db.Preload("Categoria").First(&m, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Material não encontrado")
			return
		}
		respondJSON(w, m)
	}
}

func UpdateMaterial(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var m models.Material
		if err := db.First(&m, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Material não encontrado")
			return
		}
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		// estoque muda apenas por movimento
		delete(patch, "id")
		delete(patch, "codigo")
		delete(patch, "estoque_atual")
		if err := db.Model(&m).Updates(patch).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, m)
	}
}

func DeleteMaterial(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		res := db.Model(&models.Material{}).Where("id = ?", id).Update("ativo", false)
		if res.Error != nil {
			respondDetail(w, http.StatusInternalServerError, res.Error.Error())
			return
		}
		if res.RowsAffected == 0 {
			respondDetail(w, http.StatusNotFound, "Material não encontrado")
			return
		}
		respondJSON(w, map[string]string{"message": "Material desativado com sucesso"})
	}
}

// Movimentos de estoque -------------------------------------------------------

func ListMovimentosEstoque(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Preload("Material").Order("data_movimento desc").Limit(200)
		if mat := r.URL.Query().Get("material_id"); mat != "" {
			q = q.Where("material_id = ?", mat)
		}
		if tipo := r.URL.Query().Get("tipo"); tipo != "" {
			q = q.Where("tipo_movimento = ?", tipo)
		}
		var list []models.MovimentoEstoque
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

// CreateMovimentoEstoque posts a stock movement and adjusts the material's
// running balance. Saída beyond the available balance is rejected.
func CreateMovimentoEstoque(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mov models.MovimentoEstoque
		if err := json.NewDecoder(r.Body).Decode(&mov); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if mov.Quantidade <= 0 {
			respondDetail(w, http.StatusBadRequest, "Quantidade deve ser maior que zero")
			return
		}
		var material models.Material
		if err := db.First(&material, "id = ?", mov.MaterialID).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Material não encontrado")
			return
		}
		var delta float64
		switch mov.TipoMovimento {
		case models.MovimentoEntrada, models.MovimentoAjuste:
			delta = mov.Quantidade
		case models.MovimentoSaida:
			if material.EstoqueAtual < mov.Quantidade {
				respondDetail(w, http.StatusBadRequest, "Estoque insuficiente")
				return
			}
			delta = -mov.Quantidade
		default:
			respondDetail(w, http.StatusBadRequest, "tipo de movimento inválido")
			return
		}
		mov.ID = 0
		if mov.DataMovimento.IsZero() {
			mov.DataMovimento = time.Now()
		}
		if sub := auth.Subject(r.Context()); sub != "" {
			var u models.User
			if err := db.Select("id").First(&u, "email = ?", sub).Error; err == nil {
				mov.UsuarioID = u.ID
			}
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&mov).Error; err != nil {
				return err
			}
			return tx.Model(&material).
				Update("estoque_atual", gorm.Expr("estoque_atual + ?", delta)).Error
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("movimento de estoque", "material", material.Codigo, "tipo", mov.TipoMovimento, "qtd", mov.Quantidade)
		respondJSON(w, mov)
	}
}

// EstoqueBaixo lists active materials below their minimum stock.
func EstoqueBaixo(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var materiais []models.Material
		if err := db.Where("ativo = ? AND estoque_atual < estoque_minimo", true).
			Find(&materiais).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]map[string]any, 0, len(materiais))
		for _, m := range materiais {
			out = append(out, map[string]any{
				"id":             m.ID,
				"codigo":         m.Codigo,
				"nome":           m.Nome,
				"estoque_atual":  m.EstoqueAtual,
				"estoque_minimo": m.EstoqueMinimo,
				"deficit":        m.EstoqueMinimo - m.EstoqueAtual,
			})
		}
		respondJSON(w, out)
	}
}

func HistoricoMaterial(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var movimentos []models.MovimentoEstoque
		if err := db.Where("material_id = ?", id).
			Order("data_movimento desc").Limit(50).Find(&movimentos).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, movimentos)
	}
}
