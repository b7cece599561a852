package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Seed populates the database with a small demo classification tree for
// development. It is a no-op if any classification already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM classifications").Scan(&count); err != nil {
		return fmt.Errorf("seed check classifications: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO classifications (id, labels)
		VALUES ('DEMO_0001', '[{"lang":"en","text":"Subjects","description":"Demo subject taxonomy"}]')
	`)
	if err != nil {
		return fmt.Errorf("seed insert classification: %w", err)
	}

	// A two-level tree: sciences with two children, plus a leaf sibling.
	categories := []struct {
		id     string
		parent *string
		pos    int
		labels string
	}{
		{"sciences", nil, 0, `[{"lang":"en","text":"Sciences"}]`},
		{"physics", strptr("sciences"), 0, `[{"lang":"en","text":"Physics"}]`},
		{"biology", strptr("sciences"), 1, `[{"lang":"en","text":"Biology"}]`},
		{"humanities", nil, 1, `[{"lang":"en","text":"Humanities"}]`},
	}
	for _, c := range categories {
		_, err := db.Exec(`
			INSERT INTO categories (classification_id, id, parent_id, position, labels)
			VALUES ('DEMO_0001', $1, $2, $3, $4)
		`, c.id, c.parent, c.pos, c.labels)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.id, err)
		}
	}

	// A couple of linked objects so delete guards are exercisable in dev.
	for i := 0; i < 2; i++ {
		_, err := db.Exec(`
			INSERT INTO linked_objects (classification_id, category_id, object_id)
			VALUES ('DEMO_0001', 'physics', $1)
		`, uuid.New())
		if err != nil {
			return fmt.Errorf("seed insert linked object: %w", err)
		}
	}

	slog.Info("database seeded with demo classification", "classification", "DEMO_0001")
	return nil
}

func strptr(s string) *string { return &s }
