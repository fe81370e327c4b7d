package main

import (
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/domain"
)

func main() {
	reset := flag.Bool("reset", false, "delete existing data before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{})
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrations failed:", err)
	}

	if *reset {
		// Children first to keep foreign keys happy.
		log.Println("Cleaning old data...")
		for _, table := range []string{
			"notifications", "notification_outbox", "booking_events", "blocked_dates",
			"bookings", "halls", "venues", "users",
		} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				log.Fatalf("clean %s: %v", table, err)
			}
		}
	}

	if err := db.Transaction(seed); err != nil {
		log.Fatal("seed failed:", err)
	}
	log.Println("Seed completed")
}

func seed(tx *gorm.DB) error {
	// ================== USERS ==================
	log.Println("Creating users...")

	admin, err := createUser(tx, "admin@venuebook.local", "admin123", domain.RoleAdmin, "Administrator")
	if err != nil {
		return err
	}
	log.Printf("Admin created: %s / admin123", admin.Email)

	holders := make([]*domain.User, 0, 2)
	for i, email := range []string{"aidar@riverside.kz", "gulnaz@grandhall.kz"} {
		u, err := createUser(tx, email, "owner123", domain.RoleVenueHolder, fmt.Sprintf("Venue Holder %d", i+1))
		if err != nil {
			return err
		}
		holders = append(holders, u)
	}

	for i, email := range []string{"asel@mail.kz", "bekzat@gmail.com"} {
		if _, err := createUser(tx, email, "planner123", domain.RolePlanner, fmt.Sprintf("Planner %d", i+1)); err != nil {
			return err
		}
	}

	// ================== VENUES & HALLS ==================
	log.Println("Creating venues...")
	venues := []struct {
		name, city, address string
		halls               []domain.Hall
	}{
		{
			name: "Riverside Hall", city: "Almaty", address: "12 Dostyk Ave",
			halls: []domain.Hall{
				{Name: "Grand Ballroom", Capacity: 300, Price: 1500000, DepositPercentage: 30, BalanceDueDays: 14},
				{Name: "Terrace", Capacity: 80, Price: 400000, DepositPercentage: 100, BalanceDueDays: 0},
			},
		},
		{
			name: "Grand Hall", city: "Astana", address: "3 Kabanbay Batyr",
			halls: []domain.Hall{
				{Name: "Main", Capacity: 200, Price: 800000, DepositPercentage: 25, BalanceDueDays: 21},
			},
		},
	}

	for i, v := range venues {
		venue := domain.Venue{
			OwnerID:  holders[i%len(holders)].ID,
			Name:     v.name,
			City:     v.city,
			Address:  v.address,
			IsActive: true,
		}
		if err := tx.Create(&venue).Error; err != nil {
			return fmt.Errorf("create venue %s: %w", v.name, err)
		}
		for _, h := range v.halls {
			h.VenueID = venue.ID
			h.IsActive = true
			if err := tx.Create(&h).Error; err != nil {
				return fmt.Errorf("create hall %s: %w", h.Name, err)
			}
		}
		log.Printf("Venue %q created with %d halls", venue.Name, len(v.halls))
	}
	return nil
}

func createUser(tx *gorm.DB, email, password string, role domain.UserRole, name string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Name:         name,
	}
	if err := tx.Create(u).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return u, nil
}
