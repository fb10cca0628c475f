package postgresql

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/uniwork/uniwork-backend-go/internal/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the tables this service reads and writes if they are missing.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
