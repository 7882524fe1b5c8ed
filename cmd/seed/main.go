package main

import (
	"flag"
	"log"

	"github.com/quickcart/quickcart-api/internal/config"
	"github.com/quickcart/quickcart-api/internal/hash"
	"github.com/quickcart/quickcart-api/internal/models"
)

// Seeds the database with an admin account, a verified demo customer and a
// small catalog, enough to exercise the order API locally.
func main() {
	adminPassword := flag.String("admin-password", "admin", "password for the seeded admin account")
	flag.Parse()

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	adminHash, err := hash.HashPassword(*adminPassword)
	if err != nil {
		log.Fatal(err)
	}
	customerHash, err := hash.HashPassword("customer")
	if err != nil {
		log.Fatal(err)
	}

	admin := models.User{
		Name:         "QuickCart Admin",
		Email:        "admin@quickcart.local",
		PasswordHash: adminHash,
		Role:         "ADMIN",
		VerifyEmail:  true,
	}
	customer := models.User{
		Name:         "Demo Customer",
		Email:        "customer@quickcart.local",
		Mobile:       "9876543210",
		PasswordHash: customerHash,
		Role:         "USER",
		VerifyEmail:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := db.Create(&customer).Error; err != nil {
		log.Fatalf("seed customer: %v", err)
	}

	address := models.Address{
		UserID:      customer.ID,
		AddressLine: "221B Baker Street",
		City:        "Mumbai",
		State:       "Maharashtra",
		Pincode:     "400001",
		Country:     "India",
		Mobile:      "9876543210",
	}
	if err := db.Create(&address).Error; err != nil {
		log.Fatalf("seed address: %v", err)
	}

	products := []models.Product{
		{Name: "Basmati Rice 5kg", Description: "Long grain basmati rice", Image: "https://cdn.quickcart.local/rice.jpg", Price: 549, Count: 100},
		{Name: "Cold Pressed Oil 1L", Description: "Groundnut cold pressed oil", Image: "https://cdn.quickcart.local/oil.jpg", Price: 329, Count: 50},
		{Name: "Organic Jaggery 1kg", Description: "Chemical free jaggery", Image: "https://cdn.quickcart.local/jaggery.jpg", Price: 129, Count: 80},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			log.Fatalf("seed product: %v", err)
		}
	}

	log.Printf("seeded admin user %d, customer %d, address %d, %d products",
		admin.ID, customer.ID, address.ID, len(products))
}
