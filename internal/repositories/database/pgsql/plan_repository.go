package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
	"github.com/finpost/posting_ledger/internal/core/ports"
)

type PgxPlanRepository struct {
	BaseRepository
}

// newPgxPlanRepository creates a new repository for plan headers and posting
// logs.
func newPgxPlanRepository(db DBTX) ports.PlanRepository {
	return &PgxPlanRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ ports.PlanRepository = (*PgxPlanRepository)(nil)

// CreateOrAppendPlan writes the HOLD header transition. The before-image is
// read under the header's row lock first, then the conditional upsert applies
// only when the stored operation is still HOLD. A missing RETURNING row means
// the plan is already finalized.
func (r *PgxPlanRepository) CreateOrAppendPlan(ctx context.Context, planLog domain.PostingPlanLog) (old, curr *domain.PostingPlanLog, err error) {
	old, err = r.findPlanLog(ctx, planLog.PlanID, true)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, err
	}

	query := `
		INSERT INTO posting_plan_log (plan_id, last_batch_id, last_operation, creation_time)
		VALUES ($1, $2, 'HOLD', $3)
		ON CONFLICT (plan_id) DO UPDATE
		SET last_batch_id = GREATEST(posting_plan_log.last_batch_id, EXCLUDED.last_batch_id),
		    creation_time = EXCLUDED.creation_time
		WHERE posting_plan_log.last_operation = 'HOLD'
		RETURNING plan_id, last_batch_id, last_operation, creation_time;
	`
	curr, err = r.scanPlanLog(r.DB.QueryRow(ctx, query,
		planLog.PlanID, planLog.LastBatchID, planLog.CreationTime))
	if errors.Is(err, pgx.ErrNoRows) {
		return old, nil, nil
	}
	if err != nil {
		return nil, nil, storageErr("upsert plan log", err)
	}
	return old, curr, nil
}

// FinalizePlan writes the COMMIT/ROLLBACK header transition. The update
// applies when the stored operation is HOLD or already the requested final
// operation; the latter makes replays of a finished request succeed.
func (r *PgxPlanRepository) FinalizePlan(ctx context.Context, planLog domain.PostingPlanLog, op domain.PostingOperation) (old, curr *domain.PostingPlanLog, err error) {
	old, err = r.findPlanLog(ctx, planLog.PlanID, true)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	query := `
		UPDATE posting_plan_log
		SET last_batch_id = GREATEST(last_batch_id, $2),
		    last_operation = $3,
		    creation_time = $4
		WHERE plan_id = $1 AND last_operation IN ('HOLD', $3)
		RETURNING plan_id, last_batch_id, last_operation, creation_time;
	`
	curr, err = r.scanPlanLog(r.DB.QueryRow(ctx, query,
		planLog.PlanID, planLog.LastBatchID, op, planLog.CreationTime))
	if errors.Is(err, pgx.ErrNoRows) {
		return old, nil, nil
	}
	if err != nil {
		return nil, nil, storageErr("update plan log", err)
	}
	return old, curr, nil
}

func (r *PgxPlanRepository) FindPlanLog(ctx context.Context, planID string, exclusive bool) (*domain.PostingPlanLog, error) {
	return r.findPlanLog(ctx, planID, exclusive)
}

func (r *PgxPlanRepository) findPlanLog(ctx context.Context, planID string, exclusive bool) (*domain.PostingPlanLog, error) {
	query := `
		SELECT plan_id, last_batch_id, last_operation, creation_time
		FROM posting_plan_log
		WHERE plan_id = $1
	`
	if exclusive {
		query += ` FOR UPDATE`
	}
	planLog, err := r.scanPlanLog(r.DB.QueryRow(ctx, query, planID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("plan %q: %w", planID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("select plan log", err)
	}
	return planLog, nil
}

func (r *PgxPlanRepository) scanPlanLog(row pgx.Row) (*domain.PostingPlanLog, error) {
	var planLog domain.PostingPlanLog
	err := row.Scan(&planLog.PlanID, &planLog.LastBatchID,
		&planLog.LastOperation, &planLog.CreationTime)
	if err != nil {
		return nil, err
	}
	return &planLog, nil
}

func (r *PgxPlanRepository) FindPostingLogs(ctx context.Context, planID string, op domain.PostingOperation) (map[int64][]domain.PostingLog, error) {
	query := `
		SELECT id, plan_id, batch_id, from_account_id, to_account_id,
		       amount, currency_code, description, operation, creation_time
		FROM posting_log
		WHERE plan_id = $1 AND operation = $2
		ORDER BY batch_id, id;
	`
	rows, err := r.DB.Query(ctx, query, planID, op)
	if err != nil {
		return nil, storageErr("select posting logs", err)
	}
	defer rows.Close()

	logs := make(map[int64][]domain.PostingLog)
	for rows.Next() {
		var log domain.PostingLog
		err := rows.Scan(&log.ID, &log.PlanID, &log.BatchID,
			&log.FromAccountID, &log.ToAccountID,
			&log.Amount, &log.CurrencyCode, &log.Description,
			&log.Operation, &log.CreationTime)
		if err != nil {
			return nil, storageErr("scan posting log", err)
		}
		logs[log.BatchID] = append(logs[log.BatchID], log)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate posting logs", err)
	}
	return logs, nil
}

func (r *PgxPlanRepository) AppendPostingLogs(ctx context.Context, logs []domain.PostingLog) error {
	if len(logs) == 0 {
		return nil
	}
	query := `
		INSERT INTO posting_log (
			plan_id, batch_id, from_account_id, to_account_id,
			amount, currency_code, description, operation, creation_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	batch := &pgx.Batch{}
	for _, log := range logs {
		batch.Queue(query,
			log.PlanID, log.BatchID, log.FromAccountID, log.ToAccountID,
			log.Amount, log.CurrencyCode, log.Description, log.Operation, log.CreationTime,
		)
	}
	results := r.DB.SendBatch(ctx, batch)
	defer results.Close()
	for range logs {
		if _, err := results.Exec(); err != nil {
			return storageErr("insert posting logs", err)
		}
	}
	return nil
}
