package main

import (
	"log"

	"tackler-server/database"
	"tackler-server/models"
)

func seedServiceCategories() error {
	db := database.GetDB()

	categories := []models.ServiceCategory{
		{
			Name:        "Plumbing",
			Slug:        "plumbing",
			Description: "Leak repair, faucets, drains and plumbing installations",
			Icon:        "water",
			BasePrice:   3000,
			IsActive:    true,
		},
		{
			Name:        "Electrical",
			Slug:        "electrical",
			Description: "Wiring, outlets, lighting and electrical repairs",
			Icon:        "flash",
			BasePrice:   3500,
			IsActive:    true,
		},
		{
			Name:        "Cleaning",
			Slug:        "cleaning",
			Description: "Professional home and office cleaning",
			Icon:        "sparkles",
			BasePrice:   2000,
			IsActive:    true,
		},
		{
			Name:        "Air Conditioning",
			Slug:        "air-conditioning",
			Description: "AC installation, maintenance and refrigerant recharge",
			Icon:        "snow",
			BasePrice:   4000,
			IsActive:    true,
		},
		{
			Name:        "Painting",
			Slug:        "painting",
			Description: "Interior and exterior painting",
			Icon:        "color-palette",
			BasePrice:   2500,
			IsActive:    true,
		},
		{
			Name:        "Handyman",
			Slug:        "handyman",
			Description: "Furniture assembly, mounting and small repairs",
			Icon:        "hammer",
			BasePrice:   1500,
			IsActive:    true,
		},
	}

	seeded := 0
	for _, category := range categories {
		var existing models.ServiceCategory
		if err := db.Where("slug = ?", category.Slug).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&category).Error; err != nil {
			return err
		}
		seeded++
	}

	if seeded > 0 {
		log.Printf("✅ Seeded %d service categories", seeded)
	}
	return nil
}
