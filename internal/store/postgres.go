package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var candidateColumns = []string{
	"id", "owner_id", "name", "current_title", "current_company", "location",
	"linkedin_url", "summary", "skills", "technologies", "languages",
	"certifications", "seniority", "experience_time", "average_tenure",
	"ready_at", "created_at", "updated_at",
}

// Postgres keeps candidates in PostgreSQL.
type Postgres struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*Postgres)(nil)

// NewPostgresPool connects and pings the database.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func NewPostgres(db *pgxpool.Pool, log *zap.Logger) *Postgres {
	if log == nil {
		log = zap.NewNop()
	}
	return &Postgres{db: db, logger: log, now: time.Now}
}

// Migrate creates the tables when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func scanCandidate(row pgx.Row) (*Candidate, error) {
	c := &Candidate{}
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.CurrentTitle, &c.CurrentCompany, &c.Location,
		&c.LinkedInURL, &c.Summary, &c.Skills, &c.Technologies, &c.Languages,
		&c.Certifications, &c.Seniority, &c.ExperienceYears, &c.AverageTenureYears,
		&c.ReadyAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	return c, nil
}

func findQuery(scope Scope, url string) (string, []any, error) {
	builder := psql.Select(candidateColumns...).
		From("candidates").
		Where(sq.Expr("lower(linkedin_url) = lower(?)", url))
	if scope.restricted() {
		builder = builder.Where(sq.Eq{"owner_id": scope.OwnerID})
	}
	return builder.OrderBy("created_at ASC").Limit(1).ToSql()
}

func (p *Postgres) FindByLinkedIn(ctx context.Context, scope Scope, url string) (*Candidate, error) {
	query, args, err := findQuery(scope, url)
	if err != nil {
		return nil, fmt.Errorf("build find candidate query: %w", err)
	}
	return scanCandidate(p.db.QueryRow(ctx, query, args...))
}

func (p *Postgres) Create(ctx context.Context, c *Candidate) error {
	if c == nil {
		return fmt.Errorf("candidate is nil")
	}
	now := p.now()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now

	query, args, err := psql.Insert("candidates").
		Columns(candidateColumns...).
		Values(
			c.ID, c.OwnerID, c.Name, c.CurrentTitle, c.CurrentCompany, c.Location,
			c.LinkedInURL, c.Summary, c.Skills, c.Technologies, c.Languages,
			c.Certifications, c.Seniority, c.ExperienceYears, c.AverageTenureYears,
			c.ReadyAt, c.CreatedAt, c.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert candidate query: %w", err)
	}

	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, c *Candidate) error {
	if c == nil {
		return fmt.Errorf("candidate is nil")
	}
	c.UpdatedAt = p.now()

	query := `
		UPDATE candidates SET
			name = $2, current_title = $3, current_company = $4, location = $5,
			linkedin_url = $6, summary = $7, skills = $8, technologies = $9,
			languages = $10, certifications = $11, seniority = $12,
			experience_time = $13, average_tenure = $14, updated_at = $15
		WHERE id = $1
	`
	tag, err := p.db.Exec(ctx, query,
		c.ID, c.Name, c.CurrentTitle, c.CurrentCompany, c.Location,
		c.LinkedInURL, c.Summary, c.Skills, c.Technologies,
		c.Languages, c.Certifications, c.Seniority,
		c.ExperienceYears, c.AverageTenureYears, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (p *Postgres) UpsertJobLink(ctx context.Context, link JobLink) error {
	query := `
		INSERT INTO candidate_jobs (job_id, candidate_id, adherence_score, technical_justification, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (job_id, candidate_id) DO UPDATE SET
			adherence_score = EXCLUDED.adherence_score,
			technical_justification = EXCLUDED.technical_justification,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.Exec(ctx, query, link.JobID, link.CandidateID, link.Adherence, link.Justification, p.now()); err != nil {
		return fmt.Errorf("upsert job link: %w", err)
	}
	return nil
}

func (p *Postgres) SetPipelineStatus(ctx context.Context, jobID string, candidateID uuid.UUID, status PipelineStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown pipeline status %q", status)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		previous PipelineStatus
		readyAt  *time.Time
	)
	err = tx.QueryRow(ctx,
		`SELECT pipeline_status, ready_at FROM candidate_jobs WHERE job_id = $1 AND candidate_id = $2 FOR UPDATE`,
		jobID, candidateID,
	).Scan(&previous, &readyAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("job link %s/%s: %w", jobID, candidateID, ErrNotFound)
		}
		return fmt.Errorf("load job link: %w", err)
	}

	now := p.now()
	if status == StatusReady && (readyAt == nil || previous != StatusReady) {
		day := today(now)
		readyAt = &day
		if _, err := tx.Exec(ctx, `UPDATE candidates SET ready_at = $2 WHERE id = $1`, candidateID, day); err != nil {
			return fmt.Errorf("stamp candidate ready date: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE candidate_jobs SET pipeline_status = $3, ready_at = $4, updated_at = $5 WHERE job_id = $1 AND candidate_id = $2`,
		jobID, candidateID, status, readyAt, now,
	)
	if err != nil {
		return fmt.Errorf("update pipeline status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit pipeline status: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

func searchQuery(scope Scope, excludeJobID string, f Filters) (string, []any, error) {
	builder := psql.Select(candidateColumns...).From("candidates")
	if scope.restricted() {
		builder = builder.Where(sq.Eq{"owner_id": scope.OwnerID})
	}
	if excludeJobID != "" {
		builder = builder.Where("id NOT IN (SELECT candidate_id FROM candidate_jobs WHERE job_id = ?)", excludeJobID)
	}

	filters := []struct{ column, value string }{
		{"name", f.Name},
		{"location", f.Location},
		{"seniority", f.Seniority},
		{"current_company", f.Company},
		{"technologies", f.Technologies},
		{"skills", f.Skills},
		{"languages", f.Languages},
		{"certifications", f.Certifications},
	}
	for _, filter := range filters {
		if value := strings.TrimSpace(filter.value); value != "" {
			builder = builder.Where(sq.ILike{filter.column: contains(value)})
		}
	}
	if f.ReadyOnly {
		builder = builder.Where(sq.NotEq{"ready_at": nil})
	}

	return builder.OrderBy("updated_at DESC", "created_at DESC").ToSql()
}

func (p *Postgres) Search(ctx context.Context, scope Scope, excludeJobID string, f Filters) ([]Candidate, error) {
	query, args, err := searchQuery(scope, excludeJobID, f)
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	out := make([]Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	p.logger.Debug("pool search finished", zap.Int("candidates", len(out)))
	return out, nil
}
