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

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func userPayload(u models.User) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"full_name":   u.FullName,
		"is_active":   u.IsActive,
		"roles":       u.RoleNames(),
		"permissions": u.PermissionKeys(),
	}
}

func loadUser(db *gorm.DB, query string, args ...any) (models.User, error) {
	var u models.User
	err := db.Preload("Roles.Permissions").Where(query, args...).First(&u).Error
	return u, err
}

func Register(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			respondDetail(w, http.StatusBadRequest, "email e senha obrigatorios")
			return
		}
		var count int64
		db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
		if count > 0 {
			respondDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, "hash error")
			return
		}
		u := models.User{Email: req.Email, PasswordHash: hash, FullName: req.FullName, IsActive: true}
		var userRole models.Role
		if err := db.Preload("Permissions").First(&userRole, "name = ?", "Usuario").Error; err == nil {
			u.Roles = []models.Role{userRole}
		}
		if err := db.Create(&u).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("user registered", "email", u.Email)
		respondJSON(w, userPayload(u))
	}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		u, err := loadUser(db, "email = ? AND is_active = ?", strings.ToLower(req.Username), true)
		if err != nil {
			respondDetail(w, http.StatusUnauthorized, "Incorrect credentials")
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			respondDetail(w, http.StatusUnauthorized, "Incorrect credentials")
			return
		}
		tok, err := auth.Sign(u.Email, u.RoleNames(), u.PermissionKeys())
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, "token error")
			return
		}
		lg.Infow("login", "email", u.Email)
		respondJSON(w, map[string]any{"access_token": tok, "token_type": "bearer"})
	}
}

func Me(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := loadUser(db, "email = ?", auth.Subject(r.Context()))
		if err != nil {
			respondDetail(w, http.StatusNotFound, "User not found")
			return
		}
		respondJSON(w, userPayload(u))
	}
}

func ListUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var users []models.User
		if err := db.Preload("Roles").Order("id").Find(&users).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]map[string]any, 0, len(users))
		for _, u := range users {
			out = append(out, map[string]any{
				"id":        u.ID,
				"email":     u.Email,
				"full_name": u.FullName,
				"is_active": u.IsActive,
				"roles":     u.RoleNames(),
			})
		}
		respondJSON(w, out)
	}
}

func ListRoles(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var roles []models.Role
		if err := db.Order("id").Find(&roles).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, roles)
	}
}

type updateUserReq struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
	RoleIDs  *[]int  `json:"role_ids"`
}

func UpdateUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req updateUserReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		var u models.User
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "User not found")
			return
		}
		if req.Email != nil {
			u.Email = strings.ToLower(*req.Email)
		}
		if req.FullName != nil {
			u.FullName = *req.FullName
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.Password != nil && *req.Password != "" {
			hash, hashErr := auth.HashPassword(*req.Password)
			if hashErr != nil {
				respondDetail(w, http.StatusInternalServerError, "hash error")
				return
			}
			u.PasswordHash = hash
		}
		u.UpdatedAt = time.Now()
		if err := db.Save(&u).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.RoleIDs != nil {
			var roles []models.Role
			db.Where("id IN ?", *req.RoleIDs).Find(&roles)
			if err := db.Model(&u).Association("Roles").Replace(roles); err != nil {
				respondDetail(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		reloaded, err := loadUser(db, "id = ?", u.ID)
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		lg.Infow("user updated", "id", u.ID)
		respondJSON(w, userPayload(reloaded))
	}
}
