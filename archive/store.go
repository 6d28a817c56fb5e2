package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Field identifies a metadata field in the archive's registry.
type Field struct {
	Schema    string
	Element   string
	Qualifier string
}

// Fields read when collecting known identifiers.
var (
	FieldDOI        = Field{Schema: "dc", Element: "identifier", Qualifier: "doi"}
	FieldTitle      = Field{Schema: "dc", Element: "title"}
	FieldExternalID = Field{Schema: "dash", Element: "identifier", Qualifier: "pmcid"}
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS known_items (
	kind  TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (kind, value)
)`

// Store reads the archive's metadata tables, or a local snapshot of the
// identifiers taken from them.
type Store struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
}

// OpenStore connects to dsn. postgres:// and postgresql:// URLs use the
// Postgres driver; anything else is a SQLite database path.
func OpenStore(dsn string) (*Store, error) {
	var placeholders sq.PlaceholderFormat = sq.Question
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, placeholders = "postgres", sq.Dollar
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	return &Store{
		db:      db,
		driver:  driver,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholders),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database driver name.
func (s *Store) Driver() string {
	return s.driver
}

func fieldPredicate(f Field) sq.Eq {
	eq := sq.Eq{
		"ms.short_id": f.Schema,
		"mfr.element": f.Element,
	}
	if f.Qualifier == "" {
		eq["mfr.qualifier"] = nil
	} else {
		eq["mfr.qualifier"] = f.Qualifier
	}
	return eq
}

func (s *Store) metadataQuery(columns ...string) sq.SelectBuilder {
	return s.builder.Select(columns...).
		From("metadatavalue mv").
		Join("metadatafieldregistry mfr ON mfr.metadata_field_id = mv.metadata_field_id").
		Join("metadataschemaregistry ms ON ms.metadata_schema_id = mfr.metadata_schema_id")
}

// Known collects DOIs, titles and PMC ids from the archive's metadata tables.
func (s *Store) Known(ctx context.Context) (*Known, error) {
	query, args, err := s.metadataQuery("ms.short_id", "mfr.element", "mfr.qualifier", "mv.text_value").
		Where(sq.Or{
			fieldPredicate(FieldDOI),
			fieldPredicate(FieldTitle),
			fieldPredicate(FieldExternalID),
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building metadata query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	known := NewKnown()
	for rows.Next() {
		var (
			f         Field
			qualifier sql.NullString
			value     sql.NullString
		)
		if err := rows.Scan(&f.Schema, &f.Element, &qualifier, &value); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		f.Qualifier = qualifier.String

		switch f {
		case FieldDOI:
			known.AddDOI(value.String)
		case FieldTitle:
			known.AddTitle(value.String)
		case FieldExternalID:
			known.AddExternalID(value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	slog.Debug("loaded archive identifiers",
		"dois", len(known.DOIs),
		"titles", len(known.Titles),
		"pmcids", len(known.ExternalIDs),
	)
	return known, nil
}

// Handles maps PMC ids to the handles of the items that carry them.
func (s *Store) Handles(ctx context.Context) (map[string]string, error) {
	query, args, err := s.metadataQuery("mv.text_value", "h.handle").
		Join("handle h ON h.resource_id = mv.resource_id").
		Where(fieldPredicate(FieldExternalID)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building handle query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query handles: %w", err)
	}
	defer rows.Close()

	handles := make(map[string]string)
	for rows.Next() {
		var id, handle string
		if err := rows.Scan(&id, &handle); err != nil {
			return nil, fmt.Errorf("scan handle: %w", err)
		}
		handles[normalizeExternalID(id)] = handle
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return handles, nil
}

// Save replaces the snapshot table with the contents of known.
func (s *Store) Save(ctx context.Context, known *Known) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("creating known_items: %w", err)
	}

	query, args, err := s.builder.Delete("known_items").ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clearing known_items: %w", err)
	}

	sets := []struct {
		kind   string
		values map[string]struct{}
	}{
		{ReasonDOI, known.DOIs},
		{ReasonTitle, known.Titles},
		{ReasonExternalID, known.ExternalIDs},
	}
	for _, set := range sets {
		for value := range set.values {
			query, args, err := s.builder.Insert("known_items").
				Columns("kind", "value").
				Values(set.kind, value).
				ToSql()
			if err != nil {
				return fmt.Errorf("building insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert %s %q: %w", set.kind, value, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads identifiers written by Save.
func (s *Store) LoadSnapshot(ctx context.Context) (*Known, error) {
	query, args, err := s.builder.Select("kind", "value").From("known_items").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building snapshot query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	known := NewKnown()
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		switch kind {
		case ReasonDOI:
			known.AddDOI(value)
		case ReasonTitle:
			known.AddTitle(value)
		case ReasonExternalID:
			known.AddExternalID(value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return known, nil
}

// Load returns the known identifiers from the configured source. A Postgres
// DSN is read live, a SQLite path is read as a snapshot, and otherwise the
// TSV exports in tsvDir are used.
func Load(ctx context.Context, dsn, tsvDir string) (*Known, error) {
	if dsn == "" {
		return LoadTSV(tsvDir)
	}

	store, err := OpenStore(dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if store.Driver() == "postgres" {
		return store.Known(ctx)
	}
	return store.LoadSnapshot(ctx)
}
