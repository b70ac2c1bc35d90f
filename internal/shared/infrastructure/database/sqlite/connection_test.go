package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database"
)

func openTestConn(t *testing.T) database.Connection {
	t.Helper()
	conn, err := NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "atelier.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNewConnection(t *testing.T) {
	conn := openTestConn(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestConnectionExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	_, err := conn.Exec(ctx, `CREATE TABLE freelancers (id TEXT PRIMARY KEY, username TEXT)`)
	require.NoError(t, err)

	result, err := conn.Exec(ctx, `INSERT INTO freelancers (id, username) VALUES (?, ?)`, "1", "ada")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var id, username string
	require.NoError(t, conn.QueryRow(ctx, `SELECT id, username FROM freelancers WHERE id = ?`, "1").Scan(&id, &username))
	assert.Equal(t, "1", id)
	assert.Equal(t, "ada", username)

	_, err = conn.Exec(ctx, `INSERT INTO freelancers (id, username) VALUES (?, ?)`, "2", "brendan")
	require.NoError(t, err)

	rows, err := conn.Query(ctx, `SELECT username FROM freelancers ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"ada", "brendan"}, names)
}

func TestConnectionTransaction(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	_, err := conn.Exec(ctx, `CREATE TABLE freelancers (id TEXT PRIMARY KEY, username TEXT)`)
	require.NoError(t, err)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO freelancers (id, username) VALUES (?, ?)`, "1", "ada")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	var username string
	require.NoError(t, conn.QueryRow(ctx, `SELECT username FROM freelancers WHERE id = ?`, "1").Scan(&username))
	assert.Equal(t, "ada", username)

	tx2, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx2.Exec(ctx, `INSERT INTO freelancers (id, username) VALUES (?, ?)`, "2", "brendan")
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(ctx))

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM freelancers`).Scan(&count))
	assert.Equal(t, 1, count)
}
