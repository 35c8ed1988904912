package sqlsource

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE people (id INTEGER, email TEXT, age INTEGER)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO people VALUES (1, 'a@b.com', 30)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO people VALUES (2, 'c@d.com', 41)`).Error)
	return db
}

func TestSource_IteratesAllRows(t *testing.T) {
	db := openTestDB(t)
	src, err := Open(db, `SELECT id, email, age FROM people ORDER BY id`)
	require.NoError(t, err)

	var got []string
	for {
		rec, ok := src.Next()
		if !ok {
			break
		}
		got = append(got, rec.Get("email").Str())
	}
	require.Equal(t, []string{"a@b.com", "c@d.com"}, got)
}

func TestSource_FieldOrderMatchesColumnOrder(t *testing.T) {
	db := openTestDB(t)
	src, err := Open(db, `SELECT id, email, age FROM people ORDER BY id LIMIT 1`)
	require.NoError(t, err)

	rec, ok := src.Next()
	require.True(t, ok)
	require.Equal(t, []string{"id", "email", "age"}, rec.Fields())
}
