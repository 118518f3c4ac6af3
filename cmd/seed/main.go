package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/ppob-membership/config"
	"github.com/oksasatya/ppob-membership/pkg/helpers"
)

type seedService struct {
	code, name, icon string
	tariff           int64
}

var services = []seedService{
	{"PAJAK", "Pajak PBB", "https://nutech-integrasi.app/dummy.jpg", 40000},
	{"PLN", "Listrik", "https://nutech-integrasi.app/dummy.jpg", 10000},
	{"PDAM", "PDAM Berlangganan", "https://nutech-integrasi.app/dummy.jpg", 40000},
	{"PULSA", "Pulsa", "https://nutech-integrasi.app/dummy.jpg", 40000},
	{"PGN", "PGN Berlangganan", "https://nutech-integrasi.app/dummy.jpg", 50000},
	{"MUSIK", "Musik Berlangganan", "https://nutech-integrasi.app/dummy.jpg", 50000},
	{"TV", "TV Berlangganan", "https://nutech-integrasi.app/dummy.jpg", 50000},
	{"PAKET_DATA", "Paket data", "https://nutech-integrasi.app/dummy.jpg", 50000},
	{"VOUCHER_GAME", "Voucher Game", "https://nutech-integrasi.app/dummy.jpg", 100000},
	{"VOUCHER_MAKANAN", "Voucher Makanan", "https://nutech-integrasi.app/dummy.jpg", 100000},
	{"QURBAN", "Qurban", "https://nutech-integrasi.app/dummy.jpg", 200000},
	{"ZAKAT", "Zakat", "https://nutech-integrasi.app/dummy.jpg", 300000},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, s := range services {
		if _, err := db.Exec(`
			INSERT INTO services (service_code, service_name, service_icon, service_tariff)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (service_code) DO UPDATE
			SET service_name = EXCLUDED.service_name,
			    service_icon = EXCLUDED.service_icon,
			    service_tariff = EXCLUDED.service_tariff
		`, s.code, s.name, s.icon, s.tariff); err != nil {
			log.Fatalf("failed to seed service %s: %v", s.code, err)
		}
	}
	fmt.Printf("seeded %d services\n", len(services))

	for i := 1; i <= 5; i++ {
		if _, err := db.Exec(`
			INSERT INTO banners (banner_name, banner_image, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (banner_name) DO NOTHING
		`, fmt.Sprintf("Banner %d", i), "https://nutech-integrasi.app/dummy.jpg", "Lerem Ipsum Dolor sit amet"); err != nil {
			log.Fatalf("failed to seed banner %d: %v", i, err)
		}
	}
	fmt.Println("seeded banners")

	email := "demo@example.com"
	password := "password123"
	salt, err := helpers.NewSalt()
	if err != nil {
		log.Fatalf("failed to generate salt: %v", err)
	}
	hash, err := helpers.HashPassword(password, salt)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, first_name, last_name, salt, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET salt = EXCLUDED.salt, password_hash = EXCLUDED.password_hash, updated_at = now()
		RETURNING id
	`, email, "Demo", "Member", salt, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)
}
