// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/retail-backend/internal/domain/branch"
	"github.com/your-org/retail-backend/internal/domain/catalog"
	"github.com/your-org/retail-backend/internal/domain/inventory"
	"github.com/your-org/retail-backend/internal/domain/purchase"
	"github.com/your-org/retail-backend/internal/domain/sale"
	"github.com/your-org/retail-backend/internal/domain/user"
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

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&user.User{},
		&branch.Branch{},
		&catalog.ProductSku{},

		&inventory.StockPosition{},
		&inventory.StockTransaction{},

		&purchase.PurchaseOrder{},
		&purchase.PurchaseOrderItem{},

		&sale.Sale{},
		&sale.SaleItem{},
		&sale.Payment{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
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
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

		// Ledger indexes
		"CREATE INDEX IF NOT EXISTS idx_inventory_transactions_source ON inventory_transactions(source_type, source_id)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_transactions_position_created ON inventory_transactions(stock_position_id, created_at DESC)",

		// Purchase order indexes
		"CREATE INDEX IF NOT EXISTS idx_purchase_orders_branch_status ON purchase_orders(branch_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_orders_purchase_date ON purchase_orders(purchase_date)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_order_items_order ON purchase_order_items(purchase_order_id)",

		// Sale indexes
		"CREATE INDEX IF NOT EXISTS idx_sales_branch_status ON sales(branch_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_sales_due ON sales(due_amount, due_date)",
		"CREATE INDEX IF NOT EXISTS idx_sales_writeoff_date ON sales(writeoff_date)",
		"CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id)",
		"CREATE INDEX IF NOT EXISTS idx_payments_sale ON payments(sale_id)",
		"CREATE INDEX IF NOT EXISTS idx_payments_mode ON payments(payment_mode)",
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

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedHeadOfficeBranch(); err != nil {
		return fmt.Errorf("failed to seed head office branch: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
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

func (m *Migration) seedHeadOfficeBranch() error {
	log.Println("🏬 Seeding head office branch...")

	var count int64
	m.db.Model(&branch.Branch{}).Count(&count)
	if count > 0 {
		log.Println("⏭️ Branches already exist")
		return nil
	}

	headOffice := branch.Branch{
		Name:     "Head Office",
		Address:  "Update this address in settings",
		IsActive: true,
	}
	if err := m.db.Create(&headOffice).Error; err != nil {
		return err
	}

	log.Println("✅ Created head office branch")
	return nil
}
