package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// respondDetail writes the error body shape the web frontend reads:
// {"detail": "..."} with the given status.
func respondDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}

func urlID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

// nextCodigo generates the next sequential human-readable code for a table,
// e.g. FOR-0001, CLI-0002, MAT-0010. Width is the zero padding of the
// numeric part.
func nextCodigo(db *gorm.DB, model any, prefix string, width int) string {
	var last struct{ Codigo string }
	num := 1
	err := db.Model(model).
		Where("codigo LIKE ?", prefix+"-%").
		Order("id desc").
		Limit(1).
		Select("codigo").
		Scan(&last).Error
	if err == nil && last.Codigo != "" {
		if n, convErr := strconv.Atoi(last.Codigo[len(prefix)+1:]); convErr == nil {
			num = n + 1
		}
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, num)
}

// nextNumero generates document numbers (pedidos, notas fiscais) from the
// row count, retried by the unique index on collision.
func nextNumero(db *gorm.DB, model any, prefix string, width int) string {
	var count int64
	db.Model(model).Count(&count)
	return fmt.Sprintf("%s-%0*d", prefix, width, count+1)
}
