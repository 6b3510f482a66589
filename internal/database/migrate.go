package database

import (
	"github.com/Elmeric/cycliti/internal/domain"

	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Activation{},
		&domain.PasswordReset{},
		&domain.ThirdPartyLink{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// PendingTables returns the tables Migrate would create.
func PendingTables(db *gorm.DB) ([]string, error) {
	var pending []string
	migrator := db.Migrator()
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		if !migrator.HasTable(model) {
			pending = append(pending, stmt.Schema.Table)
		}
	}
	return pending, nil
}
