package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"hooklog/internal/model"
)

type SQLRepository struct {
	db      *sql.DB
	dialect string
}

func NewSQLRepository(db *sql.DB, dialect string) (*SQLRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("nil db")
	}
	d := strings.ToLower(strings.TrimSpace(dialect))
	if d == "" {
		return nil, fmt.Errorf("empty dialect")
	}
	if d != "postgres" && d != "sqlite" {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
	return &SQLRepository{db: db, dialect: d}, nil
}

func (s *SQLRepository) Insert(ctx context.Context, rec model.Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}
	query := "INSERT INTO events (request_id, author, action, from_branch, to_branch, received_at) VALUES (" +
		s.ph(1) + "," + s.ph(2) + "," + s.ph(3) + "," + s.ph(4) + "," + s.ph(5) + "," + s.ph(6) + ") RETURNING id"

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.RequestID,
		rec.Author,
		string(rec.Action),
		nullable(rec.FromBranch),
		rec.ToBranch,
		rec.Timestamp,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *SQLRepository) Recent(ctx context.Context, limit int) ([]model.StoredRecord, error) {
	limit = clampLimit(limit)
	query := `SELECT id, request_id, author, action, from_branch, to_branch, received_at FROM events ORDER BY received_at DESC, id DESC LIMIT ` + s.ph(1)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.StoredRecord, 0, limit)
	for rows.Next() {
		var (
			id         int64
			action     string
			fromBranch sql.NullString
			rec        model.StoredRecord
		)
		if err := rows.Scan(&id, &rec.RequestID, &rec.Author, &action, &fromBranch, &rec.ToBranch, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.ID = strconv.FormatInt(id, 10)
		rec.Action = model.Action(action)
		if fromBranch.Valid {
			rec.FromBranch = model.StringPtr(fromBranch.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLRepository) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLRepository) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLRepository) ph(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func nullable(in *string) interface{} {
	if in == nil {
		return nil
	}
	return *in
}
