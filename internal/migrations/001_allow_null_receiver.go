package migrations

import (
	"gorm.io/gorm"
)

// Migration001AllowNullReceiver relaxes messages.receiver_id on databases created
// before inbound WhatsApp messages existed. Fresh tables are already nullable.
// SQLite cannot drop a NOT NULL in place, and its tables always come from AutoMigrate.
func Migration001AllowNullReceiver() Migration {
	return Migration{
		ID:   "001_allow_null_receiver",
		Name: "Allow messages without a receiver",
		Up: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}
			return db.Exec(`ALTER TABLE messages ALTER COLUMN receiver_id DROP NOT NULL`).Error
		},
		Down: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}
			// inbound rows have no receiver and must go first
			if err := db.Exec(`DELETE FROM messages WHERE receiver_id IS NULL`).Error; err != nil {
				return err
			}
			return db.Exec(`ALTER TABLE messages ALTER COLUMN receiver_id SET NOT NULL`).Error
		},
	}
}
