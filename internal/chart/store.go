package chart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store — доступ к хранилищу карт. Пишет только сервис публикации,
// остальное — read-only проекции для админки.
type Store struct {
	db      *sql.DB
	entropy io.Reader
}

func NewStore(db *sql.DB) *Store {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Store{
		db:      db,
		entropy: ulid.Monotonic(src, 0),
	}
}

// DB отдаёт пул для транзакций сервиса.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) newRevisionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

const summaryCols = `c."id", coalesce(c.config->>'slug',''), coalesce(c.config->>'title',''),
	c."is_published", coalesce((c.config->>'version')::bigint, 0), c."starred",
	c."last_edited_at", c."last_edited_by", c."published_at"`

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	out := make([]Summary, 0, 16)
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Slug, &sm.Title, &sm.IsPublished, &sm.Version,
			&sm.Starred, &sm.LastEditedAt, &sm.LastEditedBy, &sm.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// ListCharts — свежие правки первыми, с потолком строк. Непустой namespace
// фильтрует через связку dimensions → variables → datasets.
func (s *Store) ListCharts(ctx context.Context, limit int, namespace string) ([]Summary, error) {
	var rows *sql.Rows
	var err error
	if namespace != "" {
		rows, err = s.db.QueryContext(ctx, `
			select distinct `+summaryCols+`
			from charts c
			join chart_dimensions d on d."chart_id" = c."id"
			join variables v on v."id" = d."variable_id"
			join datasets ds on ds."id" = v."dataset_id"
			where ds."namespace" = $1
			order by c."last_edited_at" desc
			limit $2`, namespace, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			select `+summaryCols+`
			from charts c
			order by c."last_edited_at" desc
			limit $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// GetConfig возвращает сохранённый документ карты как есть.
func (s *Store) GetConfig(ctx context.Context, id int64) (map[string]any, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`select "config" from charts where "id" = $1`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ferr(ErrNotFound, "id", fmt.Sprintf("chart %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get chart %d: %w", id, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode chart %d config: %w", id, err)
	}
	return doc, nil
}

// ChartsByVariable — карты, на которых переменная используется хоть в одном измерении.
func (s *Store) ChartsByVariable(ctx context.Context, variableID int64, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct `+summaryCols+`
		from charts c
		join chart_dimensions d on d."chart_id" = c."id"
		where d."variable_id" = $1
		order by c."last_edited_at" desc
		limit $2`, variableID, limit)
	if err != nil {
		return nil, fmt.Errorf("charts by variable: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// ChartsByDataset — карты, использующие любую переменную датасета.
func (s *Store) ChartsByDataset(ctx context.Context, datasetID int64, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct `+summaryCols+`
		from charts c
		join chart_dimensions d on d."chart_id" = c."id"
		join variables v on v."id" = d."variable_id"
		where v."dataset_id" = $1
		order by c."last_edited_at" desc
		limit $2`, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("charts by dataset: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// Revisions — журнал публикаций карты, свежие сверху.
func (s *Store) Revisions(ctx context.Context, chartID int64, limit int) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		select "id", "chart_id", "version", "config", "created_at", "created_by"
		from chart_revisions
		where "chart_id" = $1
		order by "version" desc
		limit $2`, chartID, limit)
	if err != nil {
		return nil, fmt.Errorf("revisions: %w", err)
	}
	defer rows.Close()

	out := make([]Revision, 0, 16)
	for rows.Next() {
		var r Revision
		var raw []byte
		if err := rows.Scan(&r.ID, &r.ChartID, &r.Version, &raw, &r.CreatedAt, &r.CreatedBy); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &r.Config); err != nil {
			return nil, fmt.Errorf("decode revision %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Star делает карту единственной отмеченной — один UPDATE снимает флаг
// со всех остальных и ставит на выбранную.
func (s *Store) Star(ctx context.Context, id int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from charts where "id" = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("star chart %d: %w", id, err)
	}
	if !exists {
		return ferr(ErrNotFound, "id", fmt.Sprintf("chart %d not found", id))
	}
	if _, err := s.db.ExecContext(ctx,
		`update charts set "starred" = ("id" = $1)`, id); err != nil {
		return fmt.Errorf("star chart %d: %w", id, err)
	}
	return nil
}

// Delete удаляет карту; привязки, редиректы и ревизии уходят каскадом (FK).
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from charts where "id" = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chart %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ferr(ErrNotFound, "id", fmt.Sprintf("chart %d not found", id))
	}
	return nil
}

// ==== пользователи ====

const userCols = `"id", "email", "full_name", "is_superuser", "created_at", "updated_at"`

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`select `+userCols+` from users where "email" = $1`, email).
		Scan(&u.ID, &u.Email, &u.FullName, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, ferr(ErrNotFound, "email", "user not found")
	}
	if err != nil {
		return User{}, fmt.Errorf("user by email: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, limit int) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userCols+` from users order by "created_at" desc limit $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]User, 0, 16)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser правит имя/флаг суперпользователя.
func (s *Store) UpdateUser(ctx context.Context, id int64, fullName string, isSuperuser bool) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		update users set "full_name" = $1, "is_superuser" = $2, "updated_at" = now()
		where "id" = $3
		returning `+userCols, fullName, isSuperuser, id).
		Scan(&u.ID, &u.Email, &u.FullName, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, ferr(ErrNotFound, "id", fmt.Sprintf("user %d not found", id))
	}
	if err != nil {
		return User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return u, nil
}
