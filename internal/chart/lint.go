package chart

import (
	"context"
	"fmt"
)

type Issue struct {
	Entity  string `json:"entity"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Lint проверяет базовые противоречия в данных: дубли слагов среди
// опубликованных, редиректы на собственный текущий слаг, расхождение
// chart_dimensions с dimensions документа. В норме список пустой —
// непустой означает, что кто-то писал мимо сервиса публикации.
func (s *Store) Lint(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	// дубль слага среди опубликованных (частичный unique-индекс должен
	// такое исключать; проверка ловит данные, налитые до индекса)
	rows, err := s.db.QueryContext(ctx, `
		select config->>'slug', count(*)
		from charts
		where "is_published" and config->>'slug' is not null
		group by 1 having count(*) > 1`)
	if err != nil {
		return nil, fmt.Errorf("lint published slugs: %w", err)
	}
	for rows.Next() {
		var slug string
		var n int
		if err := rows.Scan(&slug, &n); err != nil {
			rows.Close()
			return nil, err
		}
		issues = append(issues, Issue{
			Entity:  "charts",
			Field:   "slug",
			Code:    "published_slug_duplicate",
			Message: fmt.Sprintf("slug %q is held by %d published charts", slug, n),
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// редирект, совпадающий с текущим слагом своей же карты — мёртвая запись
	rows, err = s.db.QueryContext(ctx, `
		select r."chart_id", r."slug"
		from chart_slug_redirects r
		join charts c on c."id" = r."chart_id"
		where c.config->>'slug' = r."slug"`)
	if err != nil {
		return nil, fmt.Errorf("lint self redirects: %w", err)
	}
	for rows.Next() {
		var chartID int64
		var slug string
		if err := rows.Scan(&chartID, &slug); err != nil {
			rows.Close()
			return nil, err
		}
		issues = append(issues, Issue{
			Entity:  "chart_slug_redirects",
			Field:   "slug",
			Code:    "redirect_to_self",
			Message: fmt.Sprintf("redirect %q points at chart %d which still owns that slug", slug, chartID),
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// зеркальность: число строк chart_dimensions против длины dimensions в документе
	rows, err = s.db.QueryContext(ctx, `
		select c."id",
		       coalesce(jsonb_array_length(c.config->'dimensions'), 0),
		       count(d."id")
		from charts c
		left join chart_dimensions d on d."chart_id" = c."id"
		group by c."id"
		having coalesce(jsonb_array_length(c.config->'dimensions'), 0) <> count(d."id")`)
	if err != nil {
		return nil, fmt.Errorf("lint dimension mirror: %w", err)
	}
	for rows.Next() {
		var chartID int64
		var want, got int
		if err := rows.Scan(&chartID, &want, &got); err != nil {
			rows.Close()
			return nil, err
		}
		issues = append(issues, Issue{
			Entity:  "chart_dimensions",
			Field:   "chart_id",
			Code:    "dimensions_out_of_sync",
			Message: fmt.Sprintf("chart %d: document has %d dimensions, table has %d rows", chartID, want, got),
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return issues, nil
}
