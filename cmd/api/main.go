package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gestor/internal/auth"
	"gestor/internal/httpserver"
	"gestor/internal/jobs"
	"gestor/internal/logger"
	"gestor/internal/models"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedRolesAndAdmin(db, lg)
	sched := jobs.Start(db, lg)
	defer sched.Stop()
	router := httpserver.NewRouter(db, lg)
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	lg.Infow("listening", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

// erpModules drives both permission seeding and the menu the clients render.
var erpModules = []string{"compras", "materiais", "financeiro", "vendas", "faturamento"}

var erpActions = []string{"read", "create", "update", "delete"}

func seedRolesAndAdmin(db *gorm.DB, lg *zap.SugaredLogger) {
	for _, mod := range erpModules {
		for _, act := range erpActions {
			db.Exec("INSERT INTO permissions(module, action) VALUES (?, ?) ON CONFLICT DO NOTHING", mod, act)
		}
	}
	db.Exec("INSERT INTO permissions(module, action) VALUES ('*', '*') ON CONFLICT DO NOTHING")
	db.Exec("INSERT INTO roles(name) VALUES ('Administrador') ON CONFLICT DO NOTHING")
	db.Exec("INSERT INTO roles(name) VALUES ('Usuario') ON CONFLICT DO NOTHING")

	var admin models.Role
	if err := db.First(&admin, "name = ?", "Administrador").Error; err == nil {
		var wildcard models.Permission
		if err := db.First(&wildcard, "module = ? AND action = ?", "*", "*").Error; err == nil {
			_ = db.Model(&admin).Association("Permissions").Append(&wildcard)
		}
	}
	var usuario models.Role
	if err := db.First(&usuario, "name = ?", "Usuario").Error; err == nil {
		var reads []models.Permission
		if err := db.Where("action = ?", "read").Find(&reads).Error; err == nil {
			for i := range reads {
				_ = db.Model(&usuario).Association("Permissions").Append(&reads[i])
			}
		}
	}

	email := strings.ToLower(os.Getenv("ADMIN_EMAIL"))
	if email == "" {
		email = "admin@gestor.local"
	}
	var count int64
	db.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count)
	if count > 0 {
		return
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, _ := auth.HashPassword(password)
	u := models.User{Email: email, PasswordHash: hash, FullName: "Administrador", IsActive: true}
	if err := db.Create(&u).Error; err == nil {
		_ = db.Model(&u).Association("Roles").Append(&admin)
	}
	lg.Infow("seeded default admin", "email", email)
}
