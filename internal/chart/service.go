package chart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"karta/internal/reference"
)

// Service — сервис публикации: единственная точка записи charts,
// chart_slug_redirects и chart_dimensions. Всё — в одной транзакции.
type Service struct {
	store      *Store
	properties reference.Directory // допустимые dimension.property; пустой — без проверки
}

func NewService(store *Store, catalog map[string]reference.Directory) *Service {
	return &Service{
		store:      store,
		properties: catalog["properties"],
	}
}

type PublishResult struct {
	ID      int64 `json:"id"`
	Version int64 `json:"version"`
}

// Publish сохраняет полный конфигурационный документ карты.
// existing == nil — создание; иначе — обновление, и existing обязан быть
// ровно тем документом, который вызывающий перед этим прочитал (сервис
// его не перечитывает).
//
// Внутри одной транзакции: валидация слага → проверка редиректов и
// занятости слага → редирект со старого слага → версия +1 → upsert
// документа со штампами → полная перезапись привязок → протяжка display
// на переменные → снапшот в chart_revisions. Любая ошибка — полный откат.
func (s *Service) Publish(ctx context.Context, actor string, cfg *Config, existing *Config) (PublishResult, error) {
	var zero PublishResult
	if cfg == nil {
		return zero, ferr(ErrRequired, "config", "configuration document is required")
	}
	if existing != nil && existing.ID == 0 {
		return zero, ferr(ErrRequired, "existingConfig", "existing configuration must carry the chart id")
	}

	// форматные проверки — до начала транзакции
	enforceSlug := cfg.IsPublished && (existing == nil || cfg.Slug != existing.Slug)
	if enforceSlug {
		if err := ValidateSlug(cfg.Slug); err != nil {
			return zero, err
		}
	}
	if err := s.checkProperties(cfg.Dimensions); err != nil {
		return zero, err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin publish tx: %w", err)
	}
	defer tx.Rollback()

	chartID := int64(0)
	if existing != nil {
		chartID = existing.ID
	}

	if enforceSlug {
		elsewhere, err := slugRedirectedElsewhere(ctx, tx, chartID, cfg.Slug)
		if err != nil {
			return zero, err
		}
		if elsewhere {
			return zero, ferr(ErrSlugConflict, "slug",
				fmt.Sprintf("slug %q was previously used by another chart and now redirects away from it", cfg.Slug))
		}
		taken, err := slugTakenByOtherPublished(ctx, tx, chartID, cfg.Slug)
		if err != nil {
			return zero, err
		}
		if taken {
			return zero, ferr(ErrSlugConflict, "slug",
				fmt.Sprintf("slug %q is already in use by another published chart", cfg.Slug))
		}
		// карта была опубликована под другим слагом — сохраняем старый URL навсегда
		if existing != nil && existing.IsPublished && existing.Slug != "" && existing.Slug != cfg.Slug {
			if err := recordRedirect(ctx, tx, existing.ID, existing.Slug); err != nil {
				return zero, mapStoreFault(err)
			}
		}
	}

	now := time.Now().UTC()
	justPublished := cfg.IsPublished && (existing == nil || !existing.IsPublished)

	if existing == nil {
		cfg.Version = 1
		if err := tx.QueryRowContext(ctx, `
			insert into charts ("config", "is_published", "created_at", "updated_at", "last_edited_at", "last_edited_by")
			values ('{}'::jsonb, $1, $2, $2, $2, $3)
			returning "id"`,
			cfg.IsPublished, now, actor).Scan(&cfg.ID); err != nil {
			return zero, mapStoreFault(fmt.Errorf("insert chart: %w", err))
		}
	} else {
		// оптимистическая блокировка: документ вызывающего должен совпадать
		// по версии с тем, что лежит в базе
		var storedVersion int64
		err := tx.QueryRowContext(ctx, `
			select coalesce((config->>'version')::bigint, 0) from charts where "id" = $1 for update`,
			existing.ID).Scan(&storedVersion)
		if err == sql.ErrNoRows {
			return zero, ferr(ErrNotFound, "id", fmt.Sprintf("chart %d not found", existing.ID))
		}
		if err != nil {
			return zero, fmt.Errorf("lock chart %d: %w", existing.ID, err)
		}
		if storedVersion != existing.Version {
			return zero, ferr(ErrVersionConflict, "version",
				fmt.Sprintf("expected version %d", storedVersion))
		}
		cfg.ID = existing.ID
		cfg.Version = existing.Version + 1
	}

	doc, err := json.Marshal(cfg.Document())
	if err != nil {
		return zero, fmt.Errorf("encode chart config: %w", err)
	}
	if justPublished {
		_, err = tx.ExecContext(ctx, `
			update charts set "config" = $1, "is_published" = $2, "updated_at" = $3,
				"last_edited_at" = $3, "last_edited_by" = $4, "published_at" = $3, "published_by" = $4
			where "id" = $5`,
			doc, cfg.IsPublished, now, actor, cfg.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			update charts set "config" = $1, "is_published" = $2, "updated_at" = $3,
				"last_edited_at" = $3, "last_edited_by" = $4
			where "id" = $5`,
			doc, cfg.IsPublished, now, actor, cfg.ID)
	}
	if err != nil {
		return zero, mapStoreFault(fmt.Errorf("store chart config: %w", err))
	}

	if err := replaceDimensions(ctx, tx, cfg.ID, cfg.Dimensions); err != nil {
		return zero, mapStoreFault(err)
	}
	for _, d := range cfg.Dimensions {
		if d.SaveToVariable {
			if err := propagateDisplay(ctx, tx, d.VariableID, d.Display); err != nil {
				return zero, err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		insert into chart_revisions ("id", "chart_id", "version", "config", "created_at", "created_by")
		values ($1, $2, $3, $4, $5, $6)`,
		s.store.newRevisionID(), cfg.ID, cfg.Version, doc, now, actor); err != nil {
		return zero, fmt.Errorf("record revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return zero, mapStoreFault(fmt.Errorf("commit publish: %w", err))
	}
	return PublishResult{ID: cfg.ID, Version: cfg.Version}, nil
}

func (s *Service) checkProperties(dims []Dimension) error {
	if len(s.properties.Items) == 0 {
		return nil
	}
	for i, d := range dims {
		if !s.properties.Has(d.Property) {
			return ferr(ErrPropertyUnknown, "dimensions",
				fmt.Sprintf("element %d: unknown property %q", i, d.Property))
		}
	}
	return nil
}

// mapStoreFault переводит нарушения ограничений Postgres в доменные ошибки:
// 23505 по слагам — конфликт публикации, 23503 по variable_id — not found.
func mapStoreFault(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case "charts_published_slug_uq":
			return ferr(ErrSlugConflict, "slug", "slug is already in use by another published chart")
		case "chart_slug_redirects_slug_uq":
			return ferr(ErrSlugConflict, "slug", "slug already has a redirect recorded")
		}
	case "23503": // foreign_key_violation
		if pgErr.ConstraintName == "chart_dimensions_variable_fk" {
			return ferr(ErrNotFound, "dimensions", "referenced variable not found")
		}
	}
	return err
}
