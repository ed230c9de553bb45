package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/infrastructure/monitoring"
	"lora-lending/internal/pkg/apperrors"
	"time"

	"github.com/jackc/pgx/v5"
)

const lenderColumns = `id, name, interest_type, interest_rate, min_amount, max_amount, min_term, max_term,
        processing_fee, requirements, physical_visitation, processing_time, description, contact, address,
        created_at, updated_at`

type LenderRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ lender.Repository = (*LenderRepository)(nil)

func NewLenderRepository(db DBPool, logger *slog.Logger) *LenderRepository {
	return &LenderRepository{db: db, logger: logger.With("component", "LenderRepository")}
}

func scanLender(row pgx.Row) (*lender.Policy, error) {
	var p lender.Policy
	var interestType string
	err := row.Scan(
		&p.ID, &p.Name, &interestType, &p.InterestRate, &p.MinAmount, &p.MaxAmount, &p.MinTerm, &p.MaxTerm,
		&p.ProcessingFee, &p.Requirements, &p.PhysicalVisitation, &p.ProcessingTime, &p.Description,
		&p.Contact, &p.Address, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.InterestType = lender.InterestType(interestType)
	return &p, nil
}

func (r *LenderRepository) FindAll(ctx context.Context) ([]*lender.Policy, error) {
	query := `SELECT ` + lenderColumns + ` FROM lenders ORDER BY id ASC`

	startTime := time.Now()
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		monitoring.RecordDBQuery("FindAllLenders", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query lenders", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	policies := make([]*lender.Policy, 0)
	for rows.Next() {
		p, err := scanLender(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan lender row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("FindAllLenders", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Error iterating lender rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("FindAllLenders", "success", time.Since(startTime))
	return policies, nil
}

func (r *LenderRepository) FindByID(ctx context.Context, lenderID int64) (*lender.Policy, error) {
	query := `SELECT ` + lenderColumns + ` FROM lenders WHERE id = $1`

	startTime := time.Now()
	status := "success"
	p, err := scanLender(r.db.QueryRow(ctx, query, lenderID))
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("FindLenderByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Lender not found", "lender_id", lenderID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get lender by ID", "lender_id", lenderID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return p, nil
}
