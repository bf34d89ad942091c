package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"flexreviews/internal/domain"
)

// rows per INSERT statement
const insertBatch = 200

func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

// Repo is a SnapshotStore backed by the review_snapshot table.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Load(ctx context.Context) (domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, selectSnapshotSQL)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer rows.Close()

	out := domain.Snapshot{Result: []domain.RawChannelReview{}}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return domain.Snapshot{}, err
		}
		var rv domain.RawChannelReview
		if err := json.Unmarshal(raw, &rv); err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode snapshot row: %w", err)
		}
		out.Result = append(out.Result, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	return out, nil
}

// Save replaces every row inside one transaction.
func (r *Repo) Save(ctx context.Context, s domain.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteSnapshotSQL); err != nil {
		return err
	}

	for start := 0; start < len(s.Result); start += insertBatch {
		end := min(start+insertBatch, len(s.Result))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*5)
		for i, rv := range s.Result[start:end] {
			raw, merr := json.Marshal(rv)
			if merr != nil {
				return fmt.Errorf("encode review %d: %w", rv.ID, merr)
			}
			values = append(values, "(?,?,?,?,?)")
			args = append(args,
				rv.ID,                // id
				start+i,              // position
				rv.ListingName,       // listing_name
				valBool(rv.Approved), // approved
				string(raw),          // raw
			)
		}
		if _, err = tx.ExecContext(ctx, insertSnapshotPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Approved reads one flag without decoding the whole snapshot.
func (r *Repo) Approved(ctx context.Context, id int64) (bool, error) {
	var v sql.NullBool
	err := r.db.QueryRowContext(ctx, selectApprovedSQL, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return v.Valid && v.Bool, nil
}
