package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"rfqpulse/internal/analytics"
	"rfqpulse/internal/parsing"
	"rfqpulse/pkg/contracts/domain"
)

const dateFormat = "2006-01-02"

// Store is a SQLite-backed record store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates the
// schema. Use ":memory:" for tests. The path is always explicit; there is
// no ambient default location.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every pool connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rfqs (
		rfq_id       TEXT    PRIMARY KEY,
		creator      TEXT,
		station      TEXT,
		project      TEXT,
		rfq_date     TEXT,
		source_file  TEXT,
		sheet_name   TEXT,
		is_potential INTEGER NOT NULL DEFAULT 0,
		notes        TEXT,
		loaded_at    TEXT    NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS rfq_items (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		rfq_id        TEXT    NOT NULL REFERENCES rfqs(rfq_id) ON DELETE CASCADE,
		item_number   TEXT,
		item_type     TEXT,
		specification TEXT,
		size          TEXT,
		unit          TEXT,
		quantity      REAL
	);
	CREATE INDEX IF NOT EXISTS idx_items_rfq  ON rfq_items(rfq_id);
	CREATE INDEX IF NOT EXISTS idx_items_type ON rfq_items(item_type);

	CREATE TABLE IF NOT EXISTS bidders (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT    UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bids (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		rfq_id     TEXT    NOT NULL REFERENCES rfqs(rfq_id)  ON DELETE CASCADE,
		item_id    INTEGER NOT NULL REFERENCES rfq_items(id) ON DELETE CASCADE,
		bidder_id  INTEGER NOT NULL REFERENCES bidders(id),
		unit_price REAL,
		ext_price  REAL,
		UNIQUE(item_id, bidder_id)
	);
	CREATE INDEX IF NOT EXISTS idx_bids_rfq    ON bids(rfq_id);
	CREATE INDEX IF NOT EXISTS idx_bids_bidder ON bids(bidder_id);
	CREATE INDEX IF NOT EXISTS idx_bids_item   ON bids(item_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadResult persists one parsed record set under the given solicitation
// header in a single transaction. Loading an id that already exists
// replaces it: the old solicitation is deleted first and its items and bids
// cascade away.
func (s *Store) LoadResult(ctx context.Context, sol domain.Solicitation, result *parsing.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rfqs WHERE rfq_id = ?`, sol.ID); err != nil {
		return fmt.Errorf("replace solicitation %s: %w", sol.ID, err)
	}

	var date any
	if !sol.Date.IsZero() {
		date = sol.Date.Format(dateFormat)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rfqs (rfq_id, creator, station, project, rfq_date, source_file, sheet_name, is_potential, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sol.ID, sol.Creator, sol.Station, sol.Project, date,
		sol.SourceFile, sol.SheetName, boolToInt(sol.IsPotential), sol.Notes)
	if err != nil {
		return fmt.Errorf("insert solicitation %s: %w", sol.ID, err)
	}

	itemIDs := make([]int64, len(result.Items))
	for i, item := range result.Items {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rfq_items (rfq_id, item_number, item_type, specification, size, unit, quantity)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sol.ID, item.ItemNumber, item.ItemType, item.Specification,
			nullString(item.Size), nullString(item.Unit), item.Quantity)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", item.ItemNumber, err)
		}
		itemIDs[i], err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("item id for %s: %w", item.ItemNumber, err)
		}
	}

	bidderIDs := map[string]int64{}
	for _, bid := range result.Bids {
		if bid.ItemIndex < 0 || bid.ItemIndex >= len(itemIDs) {
			return fmt.Errorf("bid references item index %d outside record set", bid.ItemIndex)
		}
		name := domain.CanonicalBidderName(bid.Bidder)
		bidderID, ok := bidderIDs[name]
		if !ok {
			bidderID, err = getOrCreateBidder(ctx, tx, name)
			if err != nil {
				return fmt.Errorf("bidder %s: %w", name, err)
			}
			bidderIDs[name] = bidderID
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bids (rfq_id, item_id, bidder_id, unit_price, ext_price) VALUES (?, ?, ?, ?, ?)`,
			sol.ID, itemIDs[bid.ItemIndex], bidderID, bid.UnitPrice, bid.ExtPrice)
		if err != nil {
			return fmt.Errorf("insert bid by %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load of %s: %w", sol.ID, err)
	}

	s.logger.InfoContext(ctx, "solicitation loaded",
		slog.String("rfq_id", sol.ID),
		slog.Int("items", len(result.Items)),
		slog.Int("bids", len(result.Bids)),
		slog.Bool("potential", sol.IsPotential))
	return nil
}

func getOrCreateBidder(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM bidders WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO bidders (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Exists reports whether a solicitation with the given id is loaded.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM rfqs WHERE rfq_id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check solicitation %s: %w", id, err)
	}
	return true, nil
}

// Delete removes a solicitation; its items and bids cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rfqs WHERE rfq_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete solicitation %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "solicitation deleted",
		slog.String("rfq_id", id), slog.Int64("rows", n))
	return nil
}

// List returns every loaded solicitation with its item and bidder counts,
// most recent first.
func (s *Store) List(ctx context.Context) ([]domain.Solicitation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.rfq_id, r.creator, r.station, r.project, r.rfq_date,
		        r.source_file, r.sheet_name, r.is_potential, r.notes, r.loaded_at,
		        COUNT(DISTINCT i.id)        AS item_count,
		        COUNT(DISTINCT b.bidder_id) AS bidder_count
		 FROM rfqs r
		 LEFT JOIN rfq_items i ON i.rfq_id = r.rfq_id
		 LEFT JOIN bids      b ON b.rfq_id = r.rfq_id
		 GROUP BY r.rfq_id
		 ORDER BY r.rfq_date DESC, r.loaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list solicitations: %w", err)
	}
	defer rows.Close()

	var out []domain.Solicitation
	for rows.Next() {
		sol, err := scanSolicitation(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, rows.Err()
}

// Get returns one solicitation header, or sql.ErrNoRows wrapped when it
// does not exist.
func (s *Store) Get(ctx context.Context, id string) (*domain.Solicitation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rfq_id, creator, station, project, rfq_date,
		        source_file, sheet_name, is_potential, notes, loaded_at
		 FROM rfqs WHERE rfq_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get solicitation %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("solicitation %s: %w", id, sql.ErrNoRows)
	}
	sol, err := scanSolicitation(rows, false)
	if err != nil {
		return nil, err
	}
	return &sol, nil
}

func scanSolicitation(rows *sql.Rows, withCounts bool) (domain.Solicitation, error) {
	var sol domain.Solicitation
	var creator, station, project, date, source, sheet, notes, loadedAt sql.NullString
	var potential int

	dest := []any{&sol.ID, &creator, &station, &project, &date,
		&source, &sheet, &potential, &notes, &loadedAt}
	if withCounts {
		dest = append(dest, &sol.ItemCount, &sol.BidderCount)
	}
	if err := rows.Scan(dest...); err != nil {
		return sol, fmt.Errorf("scan solicitation: %w", err)
	}

	sol.Creator = creator.String
	sol.Station = station.String
	sol.Project = project.String
	sol.SourceFile = source.String
	sol.SheetName = sheet.String
	sol.Notes = notes.String
	sol.IsPotential = potential != 0
	if date.Valid {
		if d, err := time.Parse(dateFormat, date.String); err == nil {
			sol.Date = d
		}
	}
	if loadedAt.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", loadedAt.String); err == nil {
			sol.LoadedAt = t
		}
	}
	return sol, nil
}

// Items returns a solicitation's items ordered by item number, numerically
// where the numbers parse as numbers.
func (s *Store) Items(ctx context.Context, solicitationID string) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rfq_id, item_number, item_type, specification, size, unit, quantity
		 FROM rfq_items WHERE rfq_id = ?
		 ORDER BY CAST(item_number AS REAL), item_number`, solicitationID)
	if err != nil {
		return nil, fmt.Errorf("items for %s: %w", solicitationID, err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		var size, unit sql.NullString
		var qty sql.NullFloat64
		if err := rows.Scan(&item.ID, &item.SolicitationID, &item.ItemNumber,
			&item.ItemType, &item.Specification, &size, &unit, &qty); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Size = size.String
		item.Unit = unit.String
		if qty.Valid {
			item.Quantity = domain.Float64(qty.Float64)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Bids returns a solicitation's bids with bidder names resolved.
func (s *Store) Bids(ctx context.Context, solicitationID string) ([]domain.Bid, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.rfq_id, b.item_id, b.bidder_id, d.name, b.unit_price, b.ext_price
		 FROM bids b JOIN bidders d ON d.id = b.bidder_id
		 WHERE b.rfq_id = ?`, solicitationID)
	if err != nil {
		return nil, fmt.Errorf("bids for %s: %w", solicitationID, err)
	}
	defer rows.Close()

	var bids []domain.Bid
	for rows.Next() {
		var bid domain.Bid
		var unit, ext sql.NullFloat64
		if err := rows.Scan(&bid.ID, &bid.SolicitationID, &bid.ItemID,
			&bid.BidderID, &bid.Bidder, &unit, &ext); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		if unit.Valid {
			bid.UnitPrice = domain.Float64(unit.Float64)
		}
		if ext.Valid {
			bid.ExtPrice = domain.Float64(ext.Float64)
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

// Bidders returns all known canonical bidder names, alphabetically.
func (s *Store) Bidders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM bidders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list bidders: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan bidder: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Quotes returns every priced historical quotation across all
// non-potential solicitations, excluding excludeID when non-empty. This is
// the joined snapshot the trend, pattern and estimation analyses consume.
func (s *Store) Quotes(ctx context.Context, excludeID string) ([]analytics.Quote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.rfq_id, r.station, r.rfq_date,
		        i.item_type, i.specification, i.size, i.unit, i.quantity,
		        d.name, b.unit_price, b.ext_price
		 FROM rfq_items i
		 JOIN rfqs    r ON r.rfq_id  = i.rfq_id
		 JOIN bids    b ON b.item_id = i.id
		 JOIN bidders d ON d.id      = b.bidder_id
		 WHERE r.is_potential = 0
		   AND r.rfq_id <> ?
		   AND b.unit_price IS NOT NULL
		   AND b.unit_price > 0
		 ORDER BY r.rfq_date, i.item_type, i.specification`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("historical quotes: %w", err)
	}
	defer rows.Close()

	var quotes []analytics.Quote
	for rows.Next() {
		var q analytics.Quote
		var station, date, size, unit sql.NullString
		var qty, ext sql.NullFloat64
		if err := rows.Scan(&q.SolicitationID, &station, &date,
			&q.ItemType, &q.Specification, &size, &unit, &qty,
			&q.Bidder, &q.UnitPrice, &ext); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Station = station.String
		q.Size = size.String
		q.Unit = unit.String
		if date.Valid {
			if d, err := time.Parse(dateFormat, date.String); err == nil {
				q.Date = d
			}
		}
		if qty.Valid {
			q.Quantity = domain.Float64(qty.Float64)
		}
		if ext.Valid {
			q.ExtPrice = domain.Float64(ext.Float64)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
