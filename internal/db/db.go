package db

import (
	"fmt"

	"taskpilot/internal/auth"
	"taskpilot/internal/task"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&task.Task{},
	); err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_tasks_user_status on tasks(user_id, status);`,
		`create index if not exists idx_tasks_user_deadline on tasks(user_id, deadline asc nulls last);`,
		// Sweep query: non-completed tasks with a deadline, joined to users.
		`create index if not exists idx_tasks_remindable on tasks(deadline) where status <> 'completed' and deadline is not null;`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}

// Healthy runs a trivial query so /api/health can report database state.
func Healthy(gdb *gorm.DB) bool {
	var one int
	return gdb.Raw(`select 1`).Scan(&one).Error == nil
}
