package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lael-77/NDL-sub001/internal/domain/signature"
	qb "github.com/lael-77/NDL-sub001/internal/platform/querybuilder"
)

type signatureTableModel struct {
	MatchID  string    `db:"match_id"`
	JudgeID  string    `db:"judge_id"`
	Blob     []byte    `db:"blob"`
	SignedAt time.Time `db:"signed_at"`
}

type SignatureRepository struct {
	db *sqlx.DB
}

func NewSignatureRepository(db *sqlx.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

func (r *SignatureRepository) Get(ctx context.Context, matchID, judgeID string) (signature.Signature, bool, error) {
	query, args, err := qb.Select("*").
		From("signatures").
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("judge_id", judgeID),
		).
		ToSQL()
	if err != nil {
		return signature.Signature{}, false, fmt.Errorf("build get signature query: %w", err)
	}

	var row signatureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return signature.Signature{}, false, nil
		}
		return signature.Signature{}, false, fmt.Errorf("get signature: %w", err)
	}

	return signatureFromRow(row), true, nil
}

func (r *SignatureRepository) ListByMatch(ctx context.Context, matchID string) ([]signature.Signature, error) {
	query, args, err := qb.Select("*").
		From("signatures").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("signed_at", "judge_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list signatures query: %w", err)
	}

	var rows []signatureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}

	out := make([]signature.Signature, 0, len(rows))
	for _, row := range rows {
		out = append(out, signatureFromRow(row))
	}
	return out, nil
}

// Put refuses a second signature from the same judge. Duplicate delivery
// shows up as zero affected rows on the DO NOTHING insert.
func (r *SignatureRepository) Put(ctx context.Context, item signature.Signature) error {
	query, args, err := qb.InsertModel("signatures", signatureTableModel{
		MatchID:  item.MatchID,
		JudgeID:  item.JudgeID,
		Blob:     item.Blob,
		SignedAt: item.SignedAt,
	}, `ON CONFLICT (match_id, judge_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("build signature insert query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert signature: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("signature insert rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: match=%s judge=%s", signature.ErrAlreadySigned, item.MatchID, item.JudgeID)
	}
	return nil
}

func signatureFromRow(row signatureTableModel) signature.Signature {
	return signature.Signature{
		MatchID:  row.MatchID,
		JudgeID:  row.JudgeID,
		Blob:     append([]byte(nil), row.Blob...),
		SignedAt: row.SignedAt,
	}
}
