package models

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hellohearing/crm_backend/config"
)

// SmsMessage rows are written by the SMS provider webhook service; this
// backend only reads them.
type SmsMessage struct {
	ID         int        `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FromNumber *string    `gorm:"column:from_number;type:text" json:"from_number"`
	ToNumber   *string    `gorm:"column:to_number;type:text" json:"to_number"`
	Direction  *string    `gorm:"column:direction;type:text" json:"direction"`
	Text       *string    `gorm:"column:text;type:text" json:"text"`
	SentAt     *time.Time `gorm:"column:sent_at;type:timestamptz" json:"sent_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// SmsHistoryRow is the flattened history shape the frontend expects.
type SmsHistoryRow struct {
	Timestamp *time.Time `gorm:"column:timestamp" json:"timestamp"`
	Sender    *string    `gorm:"column:sender" json:"sender"`
	Receiver  *string    `gorm:"column:receiver" json:"receiver"`
	Direction *string    `gorm:"column:direction" json:"direction"`
	Message   *string    `gorm:"column:message" json:"message"`
}

// GetSmsHistory returns the conversation for a normalized phone number,
// oldest first, capped at 500 rows. Numbers are compared on their last ten
// digits so stored formatting and country-code prefixes don't matter.
func GetSmsHistory(ctx context.Context, db *gorm.DB, normalizedNumber string) ([]SmsHistoryRow, error) {
	var rows []SmsHistoryRow
	query := `
		SELECT
			COALESCE(sent_at, created_at) AS timestamp,
			from_number  AS sender,
			to_number    AS receiver,
			direction,
			"text"       AS message
		FROM ` + config.Schema + `.sms_messages
		WHERE right(regexp_replace(from_number, '\D', '', 'g'), 10) = right(?, 10)
		   OR right(regexp_replace(to_number,   '\D', '', 'g'), 10) = right(?, 10)
		ORDER BY COALESCE(sent_at, created_at) ASC
		LIMIT 500
	`
	err := db.WithContext(ctx).Raw(query, normalizedNumber, normalizedNumber).Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}
