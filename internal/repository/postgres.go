package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillswap-backend/internal/dbx"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/repository/migrations"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore implements Store on PostgreSQL through the pgx
// database/sql driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies it.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresStoreFromDB(db), nil
}

// NewPostgresStoreFromDB wraps an existing handle.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// mapError converts driver errors into the package sentinels.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return fmt.Errorf("db error: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// --- UserStore ---

const userColumns = `id, username, email, password_hash, first_name, last_name, location, availability, bio, profile_photo, is_public, rating, date_joined`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Location,
		&u.Availability,
		&u.Bio,
		&u.ProfilePhoto,
		&u.IsPublic,
		&u.Rating,
		&u.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
        INSERT INTO users (username, email, password_hash, first_name, last_name, location, availability, bio, profile_photo, is_public)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, date_joined`

	err := s.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Location,
		user.Availability,
		user.Bio,
		user.ProfilePhoto,
		user.IsPublic,
	).Scan(&user.ID, &user.DateJoined)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `username = $1`, username)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `lower(email) = lower($1)`, email)
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
        UPDATE users
        SET email = $2, first_name = $3, last_name = $4, location = $5,
            availability = $6, bio = $7, profile_photo = $8, is_public = $9
        WHERE id = $1
        RETURNING ` + userColumns

	updated, err := scanUser(s.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Location,
		user.Availability,
		user.Bio,
		user.ProfilePhoto,
		user.IsPublic,
	))
	if err != nil {
		return mapError(err)
	}
	*user = *updated
	return nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	conds := []string{"is_public"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ExcludeID != 0 {
		conds = append(conds, "id <> "+arg(filter.ExcludeID))
	}
	if filter.Location != "" {
		conds = append(conds, "location ILIKE "+arg(likePattern(filter.Location)))
	}
	if filter.Skill != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM user_skills us JOIN skills sk ON sk.id = us.skill_id
            WHERE us.user_id = users.id AND us.is_offered AND sk.name ILIKE `+arg(likePattern(filter.Skill))+`)`)
	}
	if filter.Query != "" {
		p := arg(likePattern(filter.Query))
		conds = append(conds, fmt.Sprintf(
			"(username ILIKE %[1]s OR first_name ILIKE %[1]s OR last_name ILIKE %[1]s OR location ILIKE %[1]s OR bio ILIKE %[1]s)", p))
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring pattern with LIKE metacharacters escaped.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// --- SkillStore ---

func (s *PostgresStore) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM skills ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	skills := []*models.Skill{}
	for rows.Next() {
		sk := &models.Skill{}
		if err := rows.Scan(&sk.ID, &sk.Name); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %w", err)
	}
	return skills, nil
}

func (s *PostgresStore) GetSkill(ctx context.Context, id int64) (*models.Skill, error) {
	sk := &models.Skill{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM skills WHERE id = $1`, id).Scan(&sk.ID, &sk.Name)
	if err != nil {
		return nil, mapError(err)
	}
	return sk, nil
}

func (s *PostgresStore) CreateSkill(ctx context.Context, skill *models.Skill) error {
	err := s.db.QueryRowContext(ctx, `INSERT INTO skills (name) VALUES ($1) RETURNING id`, skill.Name).Scan(&skill.ID)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *PostgresStore) EnsureSkills(ctx context.Context, names []string) (int, error) {
	created := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, name := range names {
			res, err := tx.ExecContext(ctx, `INSERT INTO skills (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
			if err != nil {
				return fmt.Errorf("insert skill %q: %w", name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// --- UserSkillStore ---

func (s *PostgresStore) ListUserSkills(ctx context.Context, userID int64) ([]*models.UserSkillView, error) {
	query := `
        SELECT us.id, sk.id, sk.name, us.is_offered
        FROM user_skills us
        JOIN skills sk ON sk.id = us.skill_id
        WHERE us.user_id = $1
        ORDER BY us.id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	views := []*models.UserSkillView{}
	for rows.Next() {
		v := &models.UserSkillView{}
		if err := rows.Scan(&v.ID, &v.Skill.ID, &v.Skill.Name, &v.IsOffered); err != nil {
			return nil, fmt.Errorf("scan user skill: %w", err)
		}
		v.SkillName = v.Skill.Name
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user skills: %w", err)
	}
	return views, nil
}

func (s *PostgresStore) GetUserSkill(ctx context.Context, id int64) (*models.UserSkill, error) {
	us := &models.UserSkill{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, skill_id, is_offered FROM user_skills WHERE id = $1`, id,
	).Scan(&us.ID, &us.UserID, &us.SkillID, &us.IsOffered)
	if err != nil {
		return nil, mapError(err)
	}
	return us, nil
}

func (s *PostgresStore) CreateUserSkill(ctx context.Context, us *models.UserSkill) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO user_skills (user_id, skill_id, is_offered) VALUES ($1, $2, $3) RETURNING id`,
		us.UserID, us.SkillID, us.IsOffered,
	).Scan(&us.ID)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *PostgresStore) SetUserSkillOffered(ctx context.Context, id int64, isOffered bool) (*models.UserSkill, error) {
	us := &models.UserSkill{}
	err := s.db.QueryRowContext(ctx,
		`UPDATE user_skills SET is_offered = $2 WHERE id = $1 RETURNING id, user_id, skill_id, is_offered`,
		id, isOffered,
	).Scan(&us.ID, &us.UserID, &us.SkillID, &us.IsOffered)
	if err != nil {
		return nil, mapError(err)
	}
	return us, nil
}

func (s *PostgresStore) DeleteUserSkill(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_skills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- SwapStore ---

const swapColumns = `id, sender_id, receiver_id, sender_skill_id, receiver_skill_id, message, status, created_at`

func scanSwap(row rowScanner) (*models.SwapRequest, error) {
	r := &models.SwapRequest{}
	var senderSkill, receiverSkill sql.NullInt64
	var status string
	err := row.Scan(
		&r.ID,
		&r.SenderID,
		&r.ReceiverID,
		&senderSkill,
		&receiverSkill,
		&r.Message,
		&status,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.SenderSkillID = fromNullInt64(senderSkill)
	r.ReceiverSkillID = fromNullInt64(receiverSkill)
	r.Status = models.SwapStatus(status)
	return r, nil
}

func toNullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func (s *PostgresStore) CreateSwapRequest(ctx context.Context, req *models.SwapRequest) error {
	query := `
        INSERT INTO swap_requests (sender_id, receiver_id, sender_skill_id, receiver_skill_id, message)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, status, created_at`

	var status string
	err := s.db.QueryRowContext(ctx, query,
		req.SenderID,
		req.ReceiverID,
		toNullInt64(req.SenderSkillID),
		toNullInt64(req.ReceiverSkillID),
		req.Message,
	).Scan(&req.ID, &status, &req.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	req.Status = models.SwapStatus(status)
	return nil
}

func (s *PostgresStore) GetSwapRequest(ctx context.Context, id int64) (*models.SwapRequest, error) {
	r, err := scanSwap(s.db.QueryRowContext(ctx, `SELECT `+swapColumns+` FROM swap_requests WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

func (s *PostgresStore) ListSwapRequests(ctx context.Context, userID int64, dir SwapDirection) ([]*models.SwapRequest, error) {
	var where string
	switch dir {
	case SwapsSent:
		where = `sender_id = $1`
	case SwapsReceived:
		where = `receiver_id = $1`
	default:
		where = `(sender_id = $1 OR receiver_id = $1)`
	}
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE ` + where + ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.SwapRequest{}
	for rows.Next() {
		r, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateSwapStatus(ctx context.Context, id int64, status models.SwapStatus) (*models.SwapRequest, error) {
	query := `
        UPDATE swap_requests SET status = $2
        WHERE id = $1 AND status = 'pending'
        RETURNING ` + swapColumns

	r, err := scanSwap(s.db.QueryRowContext(ctx, query, id, string(status)))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// Nothing matched: either the row is gone or it already left pending.
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM swap_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrStaleState
}

// --- SessionStore ---

func (s *PostgresStore) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess := &models.Session{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		return nil, mapError(err)
	}
	return sess, nil
}

func (s *PostgresStore) TouchSession(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET expires_at = $2 WHERE id = $1`, id, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
