package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okrasov/textflow/internal/domain"
)

// InstanceRepo — репозиторий для работы с workflow instances.
//
// Таблица workflows:
//
//	id          TEXT PRIMARY KEY
//	kind        TEXT NOT NULL
//	input       TEXT NOT NULL
//	operation   TEXT NOT NULL DEFAULT ''
//	status      TEXT NOT NULL
//	attempt     INT NOT NULL DEFAULT 0
//	result      TEXT NOT NULL DEFAULT ''
//	error       TEXT NOT NULL DEFAULT ''
//	deadline    TIMESTAMPTZ NOT NULL
//	started_at  TIMESTAMPTZ
//	finished_at TIMESTAMPTZ
//	created_at  TIMESTAMPTZ NOT NULL
type InstanceRepo struct {
	pool *pgxpool.Pool
}

// NewInstanceRepo создаёт новый InstanceRepo.
func NewInstanceRepo(pool *pgxpool.Pool) *InstanceRepo {
	return &InstanceRepo{pool: pool}
}

// Create создаёт новый instance.
// Конфликт по id означает, что идентификатор переиспользован
// до завершения предыдущего instance — возвращается ErrAlreadyExists.
func (r *InstanceRepo) Create(ctx context.Context, inst *domain.WorkflowInstance) error {
	query := `
		INSERT INTO workflows (id, kind, input, operation, status, attempt, deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		inst.ID,
		inst.Kind,
		inst.Input,
		inst.Operation,
		inst.Status,
		inst.Attempt,
		inst.Deadline,
		inst.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: workflow %s", ErrAlreadyExists, inst.ID)
		}
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetByID возвращает instance по id.
func (r *InstanceRepo) GetByID(ctx context.Context, id string) (*domain.WorkflowInstance, error) {
	query := `
		SELECT id, kind, input, operation, status, attempt, result, error,
		       deadline, started_at, finished_at, created_at
		FROM workflows
		WHERE id = $1
	`
	return r.scanInstance(r.pool.QueryRow(ctx, query, id))
}

// Update сохраняет изменяемые поля instance.
func (r *InstanceRepo) Update(ctx context.Context, inst *domain.WorkflowInstance) error {
	query := `
		UPDATE workflows
		SET status = $2, attempt = $3, result = $4, error = $5,
		    started_at = $6, finished_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		inst.ID,
		inst.Status,
		inst.Attempt,
		inst.Result,
		inst.Error,
		inst.StartedAt,
		inst.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimPending атомарно переводит instance PENDING → RUNNING.
//
// Возвращает true, если claim удался. Условный UPDATE гарантирует, что
// instance достаётся ровно одному воркеру, даже если событие из очереди
// и polling-цикл сработали одновременно.
func (r *InstanceRepo) ClaimPending(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	query := `
		UPDATE workflows
		SET status = $2, started_at = $3
		WHERE id = $1 AND status = $4
	`
	result, err := r.pool.Exec(ctx, query, id, domain.StatusRunning, startedAt, domain.StatusPending)
	if err != nil {
		return false, fmt.Errorf("claim workflow: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListPending возвращает instances в статусе PENDING (старые первыми).
// Используется polling-fallback'ом воркера.
func (r *InstanceRepo) ListPending(ctx context.Context, limit int) ([]domain.WorkflowInstance, error) {
	query := `
		SELECT id, kind, input, operation, status, attempt, result, error,
		       deadline, started_at, finished_at, created_at
		FROM workflows
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, domain.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending workflows: %w", err)
	}
	defer rows.Close()

	return r.collectInstances(rows)
}

// RequeueStalled возвращает в PENDING instances, застрявшие в RUNNING
// дольше staleAfter (воркер упал, не успев завершить или отпустить задание).
// Возвращает количество возвращённых instances.
func (r *InstanceRepo) RequeueStalled(ctx context.Context, staleAfter time.Duration) (int64, error) {
	query := `
		UPDATE workflows
		SET status = $1, started_at = NULL
		WHERE status = $2 AND started_at < $3
	`
	cutoff := time.Now().Add(-staleAfter)
	result, err := r.pool.Exec(ctx, query, domain.StatusPending, domain.StatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("requeue stalled workflows: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteFinishedBefore удаляет завершённые instances старше cutoff.
// Используется janitor'ом для retention.
func (r *InstanceRepo) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM workflows
		WHERE status = ANY($1) AND finished_at < $2
	`
	terminal := []string{
		string(domain.StatusCompleted),
		string(domain.StatusFailed),
		string(domain.StatusTimedOut),
	}
	result, err := r.pool.Exec(ctx, query, terminal, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete finished workflows: %w", err)
	}
	return result.RowsAffected(), nil
}

// scanInstance сканирует одну строку в WorkflowInstance.
func (r *InstanceRepo) scanInstance(row pgx.Row) (*domain.WorkflowInstance, error) {
	var inst domain.WorkflowInstance

	err := row.Scan(
		&inst.ID,
		&inst.Kind,
		&inst.Input,
		&inst.Operation,
		&inst.Status,
		&inst.Attempt,
		&inst.Result,
		&inst.Error,
		&inst.Deadline,
		&inst.StartedAt,
		&inst.FinishedAt,
		&inst.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	return &inst, nil
}

// collectInstances сканирует все строки результата.
func (r *InstanceRepo) collectInstances(rows pgx.Rows) ([]domain.WorkflowInstance, error) {
	var instances []domain.WorkflowInstance
	for rows.Next() {
		inst, err := r.scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}
