package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/finpost/posting_ledger/internal/apperrors"
	"github.com/finpost/posting_ledger/internal/core/domain"
	"github.com/finpost/posting_ledger/internal/core/ports"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for accounts and their
// state logs.
func newPgxAccountRepository(db DBTX) ports.AccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ ports.AccountRepository = (*PgxAccountRepository)(nil)

// statefulQuery joins every account with its most recent log row; accounts
// with no log rows yet read as the zero state.
const statefulQuery = `
	SELECT a.id, a.currency_code, a.description, a.creation_time,
	       COALESCE(l.own_accumulated, 0),
	       COALESCE(l.min_accumulated, 0),
	       COALESCE(l.max_accumulated, 0)
	FROM account a
	LEFT JOIN LATERAL (
		SELECT own_accumulated, min_accumulated, max_accumulated
		FROM account_log
		WHERE account_id = a.id
		ORDER BY id DESC
		LIMIT 1
	) l ON true
`

func (r *PgxAccountRepository) CreateAccount(ctx context.Context, prototype domain.Account) (int64, error) {
	query := `
		INSERT INTO account (currency_code, description, creation_time)
		VALUES ($1, $2, $3)
		RETURNING id;
	`
	var id int64
	err := r.DB.QueryRow(ctx, query,
		prototype.CurrencyCode, prototype.Description, prototype.CreationTime,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("insert account", err)
	}
	return id, nil
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT id, currency_code, description, creation_time
		FROM account
		WHERE id = $1;
	`
	var acc domain.Account
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&acc.ID, &acc.CurrencyCode, &acc.Description, &acc.CreationTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("select account", err)
	}
	return &acc, nil
}

func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, ids []int64) ([]domain.Account, error) {
	query := `
		SELECT id, currency_code, description, creation_time
		FROM account
		WHERE id = ANY($1)
		ORDER BY id;
	`
	rows, err := r.DB.Query(ctx, query, ids)
	if err != nil {
		return nil, storageErr("select accounts", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, len(ids))
	for rows.Next() {
		var acc domain.Account
		if err := rows.Scan(&acc.ID, &acc.CurrencyCode, &acc.Description, &acc.CreationTime); err != nil {
			return nil, storageErr("scan account", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate accounts", err)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) FindStatefulByIDs(ctx context.Context, ids []int64) (map[int64]domain.StatefulAccount, error) {
	query := statefulQuery + `
	WHERE a.id = ANY($1);
	`
	return r.queryStateful(ctx, query, ids)
}

// FindStatefulExclusive locks the account rows in ascending id order; the
// locks are held until the surrounding transaction finishes.
func (r *PgxAccountRepository) FindStatefulExclusive(ctx context.Context, ids []int64) (map[int64]domain.StatefulAccount, error) {
	query := statefulQuery + `
	WHERE a.id = ANY($1)
	ORDER BY a.id
	FOR UPDATE OF a;
	`
	return r.queryStateful(ctx, query, ids)
}

// FindStatefulUpTo reads each account's state as recorded by the latest log
// row of the given plan at or below the batch boundary. This reconstructs what
// a previously applied request returned.
func (r *PgxAccountRepository) FindStatefulUpTo(ctx context.Context, ids []int64, planID string, batchID int64) (map[int64]domain.StatefulAccount, error) {
	query := `
		SELECT a.id, a.currency_code, a.description, a.creation_time,
		       COALESCE(l.own_accumulated, 0),
		       COALESCE(l.min_accumulated, 0),
		       COALESCE(l.max_accumulated, 0)
		FROM account a
		LEFT JOIN LATERAL (
			SELECT own_accumulated, min_accumulated, max_accumulated
			FROM account_log
			WHERE account_id = a.id AND plan_id = $2 AND batch_id <= $3
			ORDER BY id DESC
			LIMIT 1
		) l ON true
		WHERE a.id = ANY($1);
	`
	return r.queryStateful(ctx, query, ids, planID, batchID)
}

func (r *PgxAccountRepository) queryStateful(ctx context.Context, query string, args ...any) (map[int64]domain.StatefulAccount, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("select stateful accounts", err)
	}
	defer rows.Close()

	accounts := make(map[int64]domain.StatefulAccount)
	for rows.Next() {
		var acc domain.StatefulAccount
		err := rows.Scan(&acc.ID, &acc.CurrencyCode, &acc.Description, &acc.CreationTime,
			&acc.State.OwnAmount, &acc.State.MinAvailableDiff, &acc.State.MaxAvailableDiff)
		if err != nil {
			return nil, storageErr("scan stateful account", err)
		}
		accounts[acc.ID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate stateful accounts", err)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) AppendAccountLogs(ctx context.Context, logs []domain.AccountLog) error {
	if len(logs) == 0 {
		return nil
	}
	query := `
		INSERT INTO account_log (
			plan_id, batch_id, account_id, operation,
			own_accumulated, max_accumulated, min_accumulated,
			own_diff, min_diff, max_diff,
			creation_time, credit, merged
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	batch := &pgx.Batch{}
	for _, log := range logs {
		batch.Queue(query,
			log.PlanID, log.BatchID, log.AccountID, log.Operation,
			log.OwnAccumulated, log.MaxAccumulated, log.MinAccumulated,
			log.OwnDiff, log.MinDiff, log.MaxDiff,
			log.CreationTime, log.Credit, log.Merged,
		)
	}
	results := r.DB.SendBatch(ctx, batch)
	defer results.Close()
	for range logs {
		if _, err := results.Exec(); err != nil {
			return storageErr("insert account logs", err)
		}
	}
	return nil
}

// GetAccountBalance reads the committed balance at both edges of the
// [fromTime, toTime) window from the account log.
func (r *PgxAccountRepository) GetAccountBalance(ctx context.Context, id int64, fromTime, toTime time.Time) (*domain.AccountBalance, error) {
	if _, err := r.FindAccountByID(ctx, id); err != nil {
		return nil, err
	}
	query := `
		SELECT
			COALESCE((
				SELECT own_accumulated FROM account_log
				WHERE account_id = $1 AND creation_time < $2
				ORDER BY id DESC LIMIT 1
			), 0),
			COALESCE((
				SELECT own_accumulated FROM account_log
				WHERE account_id = $1 AND creation_time < $3
				ORDER BY id DESC LIMIT 1
			), 0);
	`
	balance := domain.AccountBalance{AccountID: id}
	err := r.DB.QueryRow(ctx, query, id, fromTime, toTime).Scan(
		&balance.StartAmount, &balance.FinalAmount,
	)
	if err != nil {
		return nil, storageErr("select account balance", err)
	}
	return &balance, nil
}
