package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/fsamadov/tezbazar-backend/pkg/db/models"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

// Run inserts the demo grocery catalog when the tables are empty. It is safe
// to call on every startup: non-empty tables are left alone.
func Run(ctx context.Context, db *gorm.DB, logg *logger.Logger) error {
	if db == nil {
		return fmt.Errorf("database required")
	}

	categories, err := seedCategories(ctx, db)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	if err := seedProducts(ctx, db, categories); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if err := seedBanners(ctx, db); err != nil {
		return fmt.Errorf("seed banners: %w", err)
	}

	logg.Info(ctx, "demo data seeded")
	return nil
}

func seedCategories(ctx context.Context, db *gorm.DB) (map[string]uuid.UUID, error) {
	var existing []models.Category
	if err := db.WithContext(ctx).Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		existing = demoCategories()
		if err := db.WithContext(ctx).Create(&existing).Error; err != nil {
			return nil, err
		}
	}

	bySlug := make(map[string]uuid.UUID, len(existing))
	for _, c := range existing {
		bySlug[c.Slug] = c.ID
	}
	return bySlug, nil
}

func seedProducts(ctx context.Context, db *gorm.DB, categories map[string]uuid.UUID) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	products := demoProducts(categories)
	return db.WithContext(ctx).Create(&products).Error
}

func seedBanners(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Banner{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	banners := demoBanners()
	return db.WithContext(ctx).Create(&banners).Error
}

func demoCategories() []models.Category {
	entries := []struct {
		name, slug, image string
		sort              int
	}{
		{"Овощи и фрукты", "vegetables", "https://images.unsplash.com/photo-1506976773555-b3da30a63b57?ixlib=rb-4.0.3&auto=format&fit=crop&w=80&h=60", 1},
		{"Молочные продукты", "dairy", "https://images.unsplash.com/photo-1563636619-e9143da7973b?ixlib=rb-4.0.3&auto=format&fit=crop&w=80&h=60", 2},
		{"Мясо и рыба", "meat", "https://images.unsplash.com/photo-1529692236671-f1f6cf9683ba?ixlib=rb-4.0.3&auto=format&fit=crop&w=80&h=60", 3},
		{"Снеки и напитки", "snacks", "https://images.unsplash.com/photo-1566478989037-eec170784d0b?ixlib=rb-4.0.3&auto=format&fit=crop&w=80&h=60", 4},
		{"Готовые блюда", "ready-meals", "https://images.unsplash.com/photo-1546069901-ba9599a7e63c?ixlib=rb-4.0.3&auto=format&fit=crop&w=80&h=60", 5},
		{"Хлеб и выпечка", "bakery", "https://images.unsplash.com/photo-1558961363-fa8fdf82db35?ixlib=rb-4.0.3&auto=format&fit=crop&w=80&h=60", 6},
		{"Крупы и макароны", "cereals", "https://images.unsplash.com/photo-1586201375761-83865001e31c?ixlib=rb-4.0.3&auto=format&fit=crop&w=80&h=60", 7},
		{"Сладости", "sweets", "https://images.unsplash.com/photo-1551024506-0bccd828d307?ixlib=rb-4.0.3&auto=format&fit=crop&w=80&h=60", 8},
	}

	out := make([]models.Category, 0, len(entries))
	for _, e := range entries {
		image := e.image
		out = append(out, models.Category{
			ID:        uuid.New(),
			Name:      e.name,
			Slug:      e.slug,
			ImageURL:  &image,
			SortOrder: e.sort,
		})
	}
	return out
}

func demoProducts(categories map[string]uuid.UUID) []models.Product {
	build := func(name, description, price, weight, image, slug string, ingredients []string, manufacturer, country string) models.Product {
		desc := description
		w := weight
		img := image
		m := manufacturer
		c := country
		product := models.Product{
			ID:           uuid.New(),
			Name:         name,
			Description:  &desc,
			Price:        types.MustMoney(price),
			Weight:       &w,
			ImageURL:     &img,
			IsPopular:    true,
			InStock:      true,
			Ingredients:  pq.StringArray(ingredients),
			Manufacturer: &m,
		}
		product.CountryOfOrigin = &c
		if id, ok := categories[slug]; ok {
			catID := id
			product.CategoryID = &catID
		}
		return product
	}

	return []models.Product{
		build("Хлеб Бородинский", "Ржаной хлеб", "89.00", "500г",
			"https://images.unsplash.com/photo-1509440159596-0249088772ff?ixlib=rb-4.0.3&auto=format&fit=crop&w=300&h=200",
			"bakery",
			[]string{"Мука ржаная обдирная", "мука пшеничная в/с", "вода", "соль", "дрожжи хлебопекарные", "солод ржаной", "кориандр"},
			"Хлебозавод №1", "Россия"),
		build("Молоко Простоквашино 3.2%", "Натуральное молоко", "75.00", "930мл",
			"https://images.unsplash.com/photo-1550583724-b2692b85b150?ixlib=rb-4.0.3&auto=format&fit=crop&w=300&h=200",
			"dairy",
			[]string{"Молоко цельное пастеризованное"},
			"ООО \"Простоквашино\"", "Россия"),
		build("Плов Душанбинский", "Готовый плов по-таджикски", "350.00", "400г",
			"https://images.unsplash.com/photo-1546069901-ba9599a7e63c?ixlib=rb-4.0.3&auto=format&fit=crop&w=300&h=200",
			"ready-meals",
			[]string{"Рис", "баранина", "морковь", "лук", "масло", "специи"},
			"Вкус Востока", "Таджикистан"),
		build("Яблоки Гала", "Сладкие красные яблоки", "159.00", "1кг",
			"https://images.unsplash.com/photo-1567306226416-28f0efdc88ce?ixlib=rb-4.0.3&auto=format&fit=crop&w=300&h=200",
			"vegetables",
			[]string{"Яблоки свежие"},
			"Садоводческое хозяйство \"Солнечный сад\"", "Россия"),
	}
}

func demoBanners() []models.Banner {
	description := "Скидка 20% на первый заказ по промокоду ПЕРВЫЙ"
	link := "/catalog"
	return []models.Banner{
		{
			ID:          uuid.New(),
			Title:       "Добро пожаловать в ТезБазар",
			Description: &description,
			ImageURL:    "https://images.unsplash.com/photo-1542838132-92c53300491e?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&h=300",
			LinkURL:     &link,
			IsActive:    true,
			Priority:    1,
		},
	}
}
