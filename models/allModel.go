package models

import (
	"log"

	"gorm.io/gorm"
)

// MigrateTable runs AutoMigrate for every table this service owns.
// sms_messages and appointments are created here too so a fresh database
// works end to end, even though other services populate them.
func MigrateTable(db *gorm.DB) {
	err := db.AutoMigrate(
		&Contact{},
		&Deal{},
		&Appointment{},
		&Campaign{},
		&SmsMessage{},
		&CrmSyncRun{},
		&CrmSyncError{},
	)
	if err != nil {
		log.Printf("auto-migrate failed: %v", err)
	}
}
