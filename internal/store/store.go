// Package store implements the offline annotation store on SQLite. It
// satisfies the same persistence interface as the HTTP client, so the
// editor works unchanged when no backend is reachable: annotations land in
// a local database and can be listed or synced later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Xlonenzo/contratos/internal/annotation"
	"github.com/Xlonenzo/contratos/internal/document"
)

// Store persists annotations in a local SQLite database.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open initializes the database at the given path, creating the directory
// and schema as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open annotation store: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS annotations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		contract_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		priority TEXT,
		issue_type TEXT,
		status TEXT DEFAULT 'open',
		selection_text TEXT,
		text_position TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_annotations_contract ON annotations(contract_id);
	CREATE INDEX IF NOT EXISTS idx_annotations_kind ON annotations(kind);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize annotation schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateAnnotation inserts the annotation and returns it with the locally
// assigned id. Implements the annotation.Service interface.
func (s *Store) CreateAnnotation(ctx context.Context, req annotation.CreateRequest) (*annotation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, err := json.Marshal(req.Range)
	if err != nil {
		return nil, fmt.Errorf("encode text position: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO annotations
			(contract_id, kind, title, description, priority, issue_type, selection_text, text_position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ContractID, string(req.Kind), req.Title, req.Description,
		string(req.Priority), string(req.IssueType), req.SelectionText,
		string(position), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert annotation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("annotation id: %w", err)
	}

	return &annotation.Record{
		ID:            id,
		ContractID:    req.ContractID,
		Kind:          req.Kind,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		IssueType:     req.IssueType,
		Status:        "open",
		SelectionText: req.SelectionText,
		CreatedAt:     now,
	}, nil
}

// ListAnnotations returns a contract's annotations, oldest first.
func (s *Store) ListAnnotations(ctx context.Context, contractID int64) ([]annotation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract_id, kind, title, description, priority, issue_type, status, selection_text, created_at
		FROM annotations
		WHERE contract_id = ?
		ORDER BY id ASC`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	var out []annotation.Record
	for rows.Next() {
		var rec annotation.Record
		var kind, priority, issueType string
		var description, status, selectionText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ContractID, &kind, &rec.Title,
			&description, &priority, &issueType, &status, &selectionText,
			&rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		rec.Kind = annotation.Kind(kind)
		rec.Description = description.String
		rec.Priority = document.IssuePriority(priority)
		rec.IssueType = document.IssueType(issueType)
		rec.Status = status.String
		rec.SelectionText = selectionText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByContract returns how many annotations a contract has, per kind.
func (s *Store) CountByContract(ctx context.Context, contractID int64) (map[annotation.Kind]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM annotations
		WHERE contract_id = ? GROUP BY kind`, contractID)
	if err != nil {
		return nil, fmt.Errorf("count annotations: %w", err)
	}
	defer rows.Close()

	out := make(map[annotation.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[annotation.Kind(kind)] = n
	}
	return out, rows.Err()
}
