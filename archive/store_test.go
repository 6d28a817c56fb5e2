package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dspaceSchema = `
CREATE TABLE metadataschemaregistry (
	metadata_schema_id INTEGER PRIMARY KEY,
	short_id TEXT
);
CREATE TABLE metadatafieldregistry (
	metadata_field_id INTEGER PRIMARY KEY,
	metadata_schema_id INTEGER,
	element TEXT,
	qualifier TEXT
);
CREATE TABLE metadatavalue (
	metadata_value_id INTEGER PRIMARY KEY,
	resource_id INTEGER,
	metadata_field_id INTEGER,
	text_value TEXT
);
CREATE TABLE handle (
	handle_id INTEGER PRIMARY KEY,
	handle TEXT,
	resource_id INTEGER
);
INSERT INTO metadataschemaregistry VALUES (1, 'dc'), (2, 'dash');
INSERT INTO metadatafieldregistry VALUES
	(10, 1, 'identifier', 'doi'),
	(11, 1, 'title', NULL),
	(12, 2, 'identifier', 'pmcid'),
	(13, 1, 'title', 'alternative'),
	(14, 1, 'identifier', 'uri');
INSERT INTO metadatavalue VALUES
	(1, 100, 10, '10.1/abc'),
	(2, 100, 11, 'First Article'),
	(3, 100, 12, 'PMC123'),
	(4, 100, 13, 'Alternative Title'),
	(5, 100, 14, 'http://nrs.harvard.edu/urn-3:HUL.InstRepos:100'),
	(6, 200, 11, 'Second Article'),
	(7, 200, 12, '456');
INSERT INTO handle VALUES (1, '1/100', 100), (2, '1/200', 200);
`

// setupDSpaceStore creates a SQLite database shaped like the archive's
// metadata tables.
func setupDSpaceStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenStore(filepath.Join(t.TempDir(), "dspace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	_, err = store.db.Exec(dspaceSchema)
	require.NoError(t, err)
	return store
}

func TestOpenStoreDriver(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, "sqlite", store.Driver())

	pg, err := OpenStore("postgres://user@localhost/dspace?sslmode=disable")
	require.NoError(t, err)
	defer pg.Close()
	assert.Equal(t, "postgres", pg.Driver())
}

func TestStoreKnown(t *testing.T) {
	store := setupDSpaceStore(t)

	known, err := store.Known(context.Background())
	require.NoError(t, err)

	assert.Contains(t, known.DOIs, "10.1/abc")
	assert.Contains(t, known.Titles, "First Article")
	assert.Contains(t, known.Titles, "Second Article")
	assert.NotContains(t, known.Titles, "Alternative Title")
	assert.Contains(t, known.ExternalIDs, "123")
	assert.Contains(t, known.ExternalIDs, "456")
	assert.Equal(t, 5, known.Len())
}

func TestStoreHandles(t *testing.T) {
	store := setupDSpaceStore(t)

	handles, err := store.Handles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"123": "1/100", "456": "1/200"}, handles)
}

func TestStoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.db")

	store, err := OpenStore(path)
	require.NoError(t, err)

	known := NewKnown()
	known.AddDOI("10.1/abc")
	known.AddTitle("First Article")
	known.AddExternalID("PMC123")
	require.NoError(t, store.Save(ctx, known))

	// saving again replaces the previous snapshot
	replacement := NewKnown()
	replacement.AddDOI("10.2/xyz")
	require.NoError(t, store.Save(ctx, replacement))
	require.NoError(t, store.Close())

	loaded, err := Load(ctx, path, "")
	require.NoError(t, err)
	assert.Contains(t, loaded.DOIs, "10.2/xyz")
	assert.NotContains(t, loaded.DOIs, "10.1/abc")
	assert.Equal(t, 1, loaded.Len())
}
