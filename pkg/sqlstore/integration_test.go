package sqlstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serioese/servicekit/pkg/crud"
	"github.com/serioese/servicekit/pkg/errors"
)

func TestTable_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set, skipping integration test")
	}

	db, err := OpenFromEnv()
	require.NoError(t, err)
	defer db.Close()

	tableName := fmt.Sprintf("test_contacts_%d", time.Now().UnixNano())
	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE %s (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255),
			email VARCHAR(255)
		)
	`, tableName))
	require.NoError(t, err, "Failed to create test table")
	defer func() {
		_, _ = db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName))
	}()

	table := NewTable(db, tableName, []string{"name", "email"})
	ctx := context.Background()

	// Insert
	created, err := table.Insert(ctx, crud.Record{"name": "Ada", "email": "ada@example.com"})
	require.NoError(t, err)
	id, ok := created["id"].(int64)
	require.True(t, ok)

	// Get
	got, err := table.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])

	// Update
	updated, err := table.Update(ctx, id, crud.Record{"name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated["name"])
	assert.Equal(t, "ada@example.com", updated["email"])

	// Delete, then double delete surfaces not-found
	require.NoError(t, table.Delete(ctx, id))
	err = table.Delete(ctx, id)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
