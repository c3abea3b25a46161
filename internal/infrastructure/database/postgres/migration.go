// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/upload"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// Models lists every persistent model in dependency order. Tests reuse it
// to build their schema.
func Models() []interface{} {
	return []interface{}{
		// Location hierarchy
		&location.Province{},
		&location.District{},
		&location.Ward{},

		// User domain
		&user.User{},
		&user.Address{},

		// Product domain
		&product.Category{},
		&product.Product{},
		&product.ProductOption{},
		&product.ProductOptionValue{},
		&product.ProductVariant{},
		&product.ProductVariantOption{},
		&product.ProductImage{},
		&product.StockMovement{},
		&product.ProductReview{},
		&product.ProductReviewImage{},

		// Cart domain
		&cart.Cart{},
		&cart.CartItem{},

		// Order domain
		&order.Order{},
		&order.OrderItem{},
		&order.PaymentTransaction{},

		// Supporting domains
		&wishlist.WishlistItem{},
		&upload.UploadedFile{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_active ON product_variants(product_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_variant ON stock_movements(product_variant_id, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_variant ON order_items(product_variant_id)",
		"CREATE INDEX IF NOT EXISTS idx_payment_transactions_order ON payment_transactions(order_id, status)",

		"CREATE INDEX IF NOT EXISTS idx_user_addresses_user_default ON user_addresses(user_id, is_default)",
		"CREATE INDEX IF NOT EXISTS idx_product_reviews_product ON product_reviews(product_id, created_at DESC)",
	}

	successCount := 0
	failCount := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedLocations(); err != nil {
		return fmt.Errorf("failed to seed locations: %w", err)
	}
	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedTestUser(); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}
	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := m.seedDemoCatalog(); err != nil {
		return fmt.Errorf("failed to seed demo catalog: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedLocations creates a small slice of the Vietnamese administrative
// hierarchy so addresses can be entered out of the box
func (m *Migration) seedLocations() error {
	log.Println("📍 Seeding locations...")

	var count int64
	m.db.Model(&location.Province{}).Count(&count)
	if count > 0 {
		log.Println("⏭️ Locations already exist")
		return nil
	}

	type wardSeed struct{ Code, Name string }
	type districtSeed struct {
		Code, Name string
		Wards      []wardSeed
	}
	type provinceSeed struct {
		Code, Name string
		Districts  []districtSeed
	}

	seeds := []provinceSeed{
		{
			Code: "01", Name: "Hà Nội",
			Districts: []districtSeed{
				{Code: "001", Name: "Ba Đình", Wards: []wardSeed{
					{Code: "00001", Name: "Phúc Xá"},
					{Code: "00004", Name: "Trúc Bạch"},
				}},
				{Code: "002", Name: "Hoàn Kiếm", Wards: []wardSeed{
					{Code: "00037", Name: "Hàng Bạc"},
					{Code: "00040", Name: "Hàng Đào"},
				}},
			},
		},
		{
			Code: "79", Name: "Hồ Chí Minh",
			Districts: []districtSeed{
				{Code: "760", Name: "Quận 1", Wards: []wardSeed{
					{Code: "26734", Name: "Bến Nghé"},
					{Code: "26737", Name: "Bến Thành"},
				}},
				{Code: "764", Name: "Gò Vấp", Wards: []wardSeed{
					{Code: "26842", Name: "Phường 1"},
					{Code: "26845", Name: "Phường 3"},
				}},
			},
		},
		{
			Code: "48", Name: "Đà Nẵng",
			Districts: []districtSeed{
				{Code: "490", Name: "Hải Châu", Wards: []wardSeed{
					{Code: "20242", Name: "Thạch Thang"},
					{Code: "20245", Name: "Hải Châu I"},
				}},
			},
		},
	}

	for _, p := range seeds {
		province := location.Province{Code: p.Code, Name: p.Name}
		if err := m.db.Create(&province).Error; err != nil {
			return err
		}
		for _, d := range p.Districts {
			district := location.District{Code: d.Code, Name: d.Name, ProvinceID: province.ID}
			if err := m.db.Create(&district).Error; err != nil {
				return err
			}
			for _, w := range d.Wards {
				ward := location.Ward{Code: w.Code, Name: w.Name, DistrictID: district.ID}
				if err := m.db.Create(&ward).Error; err != nil {
					return err
				}
			}
		}
	}

	log.Println("✅ Seeded location hierarchy")
	return nil
}

func (m *Migration) seedAdminUser() error {
	log.Println("👤 Seeding admin user...")

	var existing user.User
	result := m.db.Where("email = ?", "admin@example.com").First(&existing)
	if result.Error == nil {
		log.Printf("⏭️ Admin user already exists with ID: %d", existing.ID)
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := user.User{
		Email:     "admin@example.com",
		Password:  string(hashedPassword),
		FirstName: "Admin",
		LastName:  "User",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := m.db.Create(&adminUser).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Println("✅ Created admin user: admin@example.com (password: admin123)")
	return nil
}

func (m *Migration) seedTestUser() error {
	log.Println("👤 Seeding test user...")

	var existing user.User
	result := m.db.Where("email = ?", "test1@example.com").First(&existing)
	if result.Error == nil {
		log.Println("⏭️ Test user already exists")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("test123"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	testUser := user.User{
		Email:     "test1@example.com",
		Password:  string(hashedPassword),
		FirstName: "Test",
		LastName:  "User",
		Phone:     "+84901234567",
		IsActive:  true,
		IsAdmin:   false,
	}
	if err := m.db.Create(&testUser).Error; err != nil {
		return err
	}

	log.Println("✅ Created test user: test1@example.com (password: test123)")
	return nil
}

// seedCategories creates the default category tree
func (m *Migration) seedCategories() error {
	log.Println("🏷️ Seeding categories...")

	roots := []struct {
		Name     string
		Slug     string
		Children []struct{ Name, Slug string }
	}{
		{
			Name: "Áo", Slug: "ao",
			Children: []struct{ Name, Slug string }{
				{"Áo Thun", "ao-thun"},
				{"Áo Sơ Mi", "ao-so-mi"},
			},
		},
		{
			Name: "Quần", Slug: "quan",
			Children: []struct{ Name, Slug string }{
				{"Quần Jeans", "quan-jeans"},
				{"Quần Short", "quan-short"},
			},
		},
		{Name: "Phụ Kiện", Slug: "phu-kien"},
	}

	for _, root := range roots {
		var existing product.Category
		result := m.db.Where("slug = ?", root.Slug).First(&existing)
		if result.Error == nil {
			log.Printf("⏭️ Category already exists: %s", root.Name)
			continue
		}

		category := product.Category{Name: root.Name, Slug: root.Slug, IsActive: true}
		if err := m.db.Create(&category).Error; err != nil {
			return err
		}
		for _, child := range root.Children {
			sub := product.Category{
				Name:     child.Name,
				Slug:     child.Slug,
				ParentID: &category.ID,
				IsActive: true,
			}
			if err := m.db.Create(&sub).Error; err != nil {
				return err
			}
		}
		log.Printf("✅ Created category: %s", root.Name)
	}

	return nil
}

// seedDemoCatalog creates a demo product with a full color/size variant
// matrix so the storefront works out of the box
func (m *Migration) seedDemoCatalog() error {
	log.Println("🛍️ Seeding demo catalog...")

	var existing product.Product
	if err := m.db.Where("slug = ?", "ao-thun-basic").First(&existing).Error; err == nil {
		log.Println("⏭️ Demo catalog already exists")
		return nil
	}

	var category product.Category
	if err := m.db.Where("slug = ?", "ao-thun").First(&category).Error; err != nil {
		return fmt.Errorf("category ao-thun missing: %w", err)
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		prod := product.Product{
			CategoryID:  &category.ID,
			Name:        "Áo Thun Basic",
			Slug:        "ao-thun-basic",
			Gender:      product.GenderUnisex,
			Description: "Áo thun cotton 100%, form regular fit.",
			IsActive:    true,
		}
		if err := tx.Create(&prod).Error; err != nil {
			return err
		}

		colorOption := product.ProductOption{ProductID: prod.ID, Name: "Color"}
		sizeOption := product.ProductOption{ProductID: prod.ID, Name: "Size"}
		if err := tx.Create(&colorOption).Error; err != nil {
			return err
		}
		if err := tx.Create(&sizeOption).Error; err != nil {
			return err
		}

		colors := map[string]*product.ProductOptionValue{}
		colorSeeds := []struct{ Name, Meta string }{
			{"Đỏ", "#c0392b"},
			{"Xanh", "#2980b9"},
		}
		for _, c := range colorSeeds {
			value := product.ProductOptionValue{ProductOptionID: colorOption.ID, Value: c.Name, Meta: c.Meta}
			if err := tx.Create(&value).Error; err != nil {
				return err
			}
			colors[c.Name] = &value
		}

		sizes := map[string]*product.ProductOptionValue{}
		for _, name := range []string{"S", "M"} {
			value := product.ProductOptionValue{ProductOptionID: sizeOption.ID, Value: name}
			if err := tx.Create(&value).Error; err != nil {
				return err
			}
			sizes[name] = &value
		}

		variantSeeds := []struct {
			Color string
			Size  string
			SKU   string
			Price int64
			Stock int
		}{
			{"Đỏ", "S", "AT-BASIC-DO-S", 150000, 20},
			{"Đỏ", "M", "AT-BASIC-DO-M", 150000, 25},
			{"Xanh", "S", "AT-BASIC-XANH-S", 160000, 15},
			{"Xanh", "M", "AT-BASIC-XANH-M", 160000, 10},
		}

		for _, seed := range variantSeeds {
			variant := product.ProductVariant{
				ProductID: prod.ID,
				SKU:       seed.SKU,
				Price:     seed.Price,
				Stock:     seed.Stock,
				IsActive:  true,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}

			links := []product.ProductVariantOption{
				{ProductVariantID: variant.ID, ProductOptionID: colorOption.ID, ProductOptionValueID: colors[seed.Color].ID},
				{ProductVariantID: variant.ID, ProductOptionID: sizeOption.ID, ProductOptionValueID: sizes[seed.Size].ID},
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}

		images := []product.ProductImage{
			{ProductID: prod.ID, URL: "https://res.cloudinary.com/demo/image/upload/storefront/ao-thun-basic-do.jpg", ProductOptionValueID: &colors["Đỏ"].ID, SortOrder: 1},
			{ProductID: prod.ID, URL: "https://res.cloudinary.com/demo/image/upload/storefront/ao-thun-basic-xanh.jpg", ProductOptionValueID: &colors["Xanh"].ID, SortOrder: 2},
		}
		if err := tx.Create(&images).Error; err != nil {
			return err
		}

		log.Printf("✅ Created demo product: %s with %d variants", prod.Name, len(variantSeeds))
		return nil
	})
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	tables := []string{
		"payment_transactions",
		"order_items",
		"orders",
		"cart_items",
		"carts",
		"wishlist_items",
		"uploaded_files",
		"product_review_images",
		"product_reviews",
		"stock_movements",
		"product_variant_options",
		"product_variants",
		"product_option_values",
		"product_options",
		"product_images",
		"products",
		"categories",
		"user_addresses",
		"users",
		"wards",
		"districts",
		"provinces",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}
