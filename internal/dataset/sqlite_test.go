package dataset

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridseer/gridseer/pkg/models"
)

// makeDB creates a SQLite file and runs the statements against it.
func makeDB(t *testing.T, statements ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "readings.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range statements {
		_, err = db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, db.Close())
	return path
}

func TestLoadSQLite(t *testing.T) {
	path := makeDB(t,
		`CREATE TABLE readings (timestamp TEXT NOT NULL, demand REAL, "import" REAL)`,
		`INSERT INTO readings VALUES
			('2024-03-01 00:05:00', 615.0, NULL),
			('2024-03-01 00:00:00', 620.5, 40.4)`,
	)

	frame, err := LoadSQLite(path, testOptions())
	require.NoError(t, err)
	require.Equal(t, 2, frame.Len())

	assert.True(t, frame.Timestamps[0].Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		"rows come back time-ascending")
	assert.InDelta(t, 620.5, frame.Values[models.FieldDemand][0], 1e-9)
	assert.Equal(t, 1, frame.MissingCount(models.FieldImport), "NULL reading is missing")
}

func TestLoadSQLiteUnixTimestamps(t *testing.T) {
	path := makeDB(t,
		`CREATE TABLE readings (timestamp INTEGER NOT NULL, demand REAL, "import" REAL)`,
		`INSERT INTO readings VALUES (1709251200, 620.5, 40.4)`,
	)

	frame, err := LoadSQLite(path, testOptions())
	require.NoError(t, err)
	require.Equal(t, 1, frame.Len())
	assert.True(t, frame.Timestamps[0].Equal(time.Unix(1709251200, 0).UTC()))
}

func TestLoadSQLiteTableOverride(t *testing.T) {
	path := makeDB(t,
		`CREATE TABLE grid_log (timestamp TEXT NOT NULL, demand REAL, "import" REAL)`,
		`INSERT INTO grid_log VALUES ('2024-03-01 00:00:00', 620.5, 40.4)`,
	)

	opts := testOptions()
	opts.Table = "grid_log"
	frame, err := LoadSQLite(path, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Len())
}

func TestLoadSQLiteMissingTable(t *testing.T) {
	path := makeDB(t, `CREATE TABLE other (x REAL)`)

	_, err := LoadSQLite(path, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `table "readings" not found`)
}

func TestLoadSQLiteMissingRequiredColumn(t *testing.T) {
	path := makeDB(t, `CREATE TABLE readings (timestamp TEXT NOT NULL, demand REAL)`)

	_, err := LoadSQLite(path, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "import"`)
}
