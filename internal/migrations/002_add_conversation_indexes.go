package migrations

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type indexSpec struct {
	name    string
	columns []string
	where   string
}

// conversationIndexes back the conversation listing query
// (WHERE sender_id = ? OR receiver_id = ? ORDER BY created_at DESC, id DESC)
// and the per-correspondent unread lookups.
var conversationIndexes = []indexSpec{
	{name: "idx_messages_sender_created", columns: []string{"sender_id", "created_at DESC", "id DESC"}},
	{name: "idx_messages_receiver_created", columns: []string{"receiver_id", "created_at DESC", "id DESC"}},
	{name: "idx_messages_unread", columns: []string{"receiver_id", "sender_id"}, where: "is_read = false"},
}

func (s indexSpec) createSQL(table string) string {
	cols := make([]string, len(s.columns))
	for i, c := range s.columns {
		name, order, _ := strings.Cut(c, " ")
		cols[i] = strings.TrimSpace(pq.QuoteIdentifier(name) + " " + order)
	}
	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		pq.QuoteIdentifier(s.name), pq.QuoteIdentifier(table), strings.Join(cols, ", "))
	if s.where != "" {
		stmt += " WHERE " + s.where
	}
	return stmt
}

func Migration002AddConversationIndexes() Migration {
	return Migration{
		ID:        "002_add_conversation_indexes",
		Name:      "Add indexes for conversation listing",
		DependsOn: []string{"001_allow_null_receiver"},
		Up: func(db *gorm.DB) error {
			for _, idx := range conversationIndexes {
				if err := db.Exec(idx.createSQL("messages")).Error; err != nil {
					return fmt.Errorf("create %s: %w", idx.name, err)
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			for i := len(conversationIndexes) - 1; i >= 0; i-- {
				stmt := "DROP INDEX IF EXISTS " + pq.QuoteIdentifier(conversationIndexes[i].name)
				if err := db.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
