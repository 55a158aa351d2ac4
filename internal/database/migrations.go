package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds the indexes the partition queries depend on. The composite
// (board_id, stack, status) index backs every reconciliation pass.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"tasks", "idx_tasks_partition", "board_id, stack, status"},
		{"tasks", "idx_tasks_creator_id", "creator_id"},
		{"tasks", "idx_tasks_due_date", "due_date"},

		{"task_assignments", "idx_task_assignments_user_id", "user_id"},
		{"task_days", "idx_task_days_user_day", "user_id, day"},
	}

	for _, idx := range indexes {
		exists, err := indexExists(db, idx.table, idx.name)
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}
		if exists {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

func indexExists(db *gorm.DB, table, name string) (bool, error) {
	var count int64
	var err error

	switch db.Dialector.Name() {
	case "mysql":
		err = db.Raw(`
			SELECT COUNT(*)
			FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?
		`, table, name).Scan(&count).Error
	case "postgres":
		err = db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, table, name).Scan(&count).Error
	default:
		// sqlite in tests
		err = db.Raw(`
			SELECT COUNT(*)
			FROM sqlite_master
			WHERE type = 'index' AND tbl_name = ? AND name = ?
		`, table, name).Scan(&count).Error
	}

	return count > 0, err
}
