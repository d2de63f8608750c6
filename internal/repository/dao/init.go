package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&App{},
		&Channel{},
		&Template{},
		&Recipient{},
		&RecipientGroup{},
		&RecipientGroupRel{},
		&Batch{},
		&Detail{},
	)
}
