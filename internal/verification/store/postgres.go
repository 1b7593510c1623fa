package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"trustgate/internal/scoring"
	"trustgate/internal/verification/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
	txcontext "trustgate/pkg/platform/tx"
)

// PostgresStore persists submissions in the submissions table. Queries are
// built with squirrel and every method joins the transaction carried in ctx.
type PostgresStore struct {
	db  *sql.DB
	psq sq.StatementBuilderType
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:  db,
		psq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) dbConn {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

var submissionColumns = []string{
	"id", "user_id", "name", "email", "phone", "organization", "gov_id",
	"has_document", "email_verified", "license", "mfa_verified",
	"risk_score", "risk_level", "risk_factors", "urgency", "credibility", "trust_score",
	"status", "reviewed_by", "review_note", "reviewed_at", "created_at",
}

func (s *PostgresStore) Create(ctx context.Context, sub *models.Submission) error {
	factors, err := json.Marshal(sub.Assessment.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}
	a := sub.Attributes
	query, args, err := s.psq.Insert("submissions").
		Columns(submissionColumns...).
		Values(
			uuid.UUID(sub.ID), uuid.UUID(sub.UserID), a.Name, a.Email, a.Phone, a.Organization, a.GovID,
			a.HasDocument, a.EmailVerified, a.License, a.MFAVerified,
			sub.Assessment.RiskScore, string(sub.Assessment.RiskLevel), string(factors),
			sub.Assessment.Urgency, sub.Assessment.Credibility, sub.Assessment.TrustScore,
			string(sub.Status), nullString(sub.ReviewedBy), nullString(sub.ReviewNote), sub.ReviewedAt, sub.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, subID id.SubmissionID) (*models.Submission, error) {
	query, args, err := s.psq.Select(submissionColumns...).
		From("submissions").
		Where(sq.Eq{"id": uuid.UUID(subID)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return scanSubmission(s.conn(ctx).QueryRowContext(ctx, query, args...))
}

// ListByStatus returns matching submissions oldest first.
func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Submission, error) {
	query, args, err := s.psq.Select(submissionColumns...).
		From("submissions").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, runs validate then
// mutate and writes the review fields back. Without a transaction in ctx it
// opens and commits its own.
func (s *PostgresStore) Execute(ctx context.Context, subID id.SubmissionID, validate func(*models.Submission) error, mutate func(*models.Submission)) (*models.Submission, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.execute(ctx, tx, subID, validate, mutate)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	sub, err := s.execute(ctx, tx, subID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submission update: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) execute(ctx context.Context, tx *sql.Tx, subID id.SubmissionID, validate func(*models.Submission) error, mutate func(*models.Submission)) (*models.Submission, error) {
	query, args, err := s.psq.Select(submissionColumns...).
		From("submissions").
		Where(sq.Eq{"id": uuid.UUID(subID)}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	sub, err := scanSubmission(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := validate(sub); err != nil {
		return nil, err
	}
	mutate(sub)

	update, args, err := s.psq.Update("submissions").
		SetMap(map[string]any{
			"status":      string(sub.Status),
			"reviewed_by": nullString(sub.ReviewedBy),
			"review_note": nullString(sub.ReviewNote),
			"reviewed_at": sub.ReviewedAt,
		}).
		Where(sq.Eq{"id": uuid.UUID(subID)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	return sub, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		sub                    models.Submission
		rawID, rawUserID       uuid.UUID
		phone, org, govID      sql.NullString
		reviewedBy, reviewNote sql.NullString
		riskLevel, status      string
		factors                []byte
		reviewedAt             sql.NullTime
		a                      = &sub.Attributes
		as                     = &sub.Assessment
	)
	err := row.Scan(
		&rawID, &rawUserID, &a.Name, &a.Email, &phone, &org, &govID,
		&a.HasDocument, &a.EmailVerified, &a.License, &a.MFAVerified,
		&as.RiskScore, &riskLevel, &factors, &as.Urgency, &as.Credibility, &as.TrustScore,
		&status, &reviewedBy, &reviewNote, &reviewedAt, &sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	if err := json.Unmarshal(factors, &as.RiskFactors); err != nil {
		return nil, fmt.Errorf("decode risk factors: %w", err)
	}

	sub.ID = id.SubmissionID(rawID)
	sub.UserID = id.UserID(rawUserID)
	sub.Status = models.Status(status)
	sub.ReviewedBy = reviewedBy.String
	sub.ReviewNote = reviewNote.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		sub.ReviewedAt = &t
	}
	a.Phone = optional(phone)
	a.Organization = optional(org)
	a.GovID = optional(govID)
	a.CreatedAt = sub.CreatedAt
	as.RiskLevel = scoring.RiskLevel(riskLevel)
	as.Priority = scoring.Priority(as.Urgency, as.Credibility)
	return &sub, nil
}

func optional(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return scoring.Optional(ns.String)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
