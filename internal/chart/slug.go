package chart

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// слаг — url-сегмент: буквы/цифры/подчёркивание/дефис, длина > 1
var slugRe = regexp.MustCompile(`^[\w-]+$`)

// ValidateSlug проверяет формат слага для публикуемой карты.
func ValidateSlug(slug string) error {
	if len(slug) < 2 || !slugRe.MatchString(slug) {
		return ferr(ErrSlugInvalid, "slug",
			fmt.Sprintf("invalid slug %q: expected word characters and hyphens, length > 1", slug))
	}
	return nil
}

// slugRedirectedElsewhere: слаг уже уведён редиректом от другой карты.
// Редирект на самого себя (история собственных слагов) конфликтом не считается.
func slugRedirectedElsewhere(ctx context.Context, tx *sql.Tx, chartID int64, slug string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`select count(*) from chart_slug_redirects where "slug" = $1 and "chart_id" <> $2`,
		slug, chartID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("slug redirect lookup: %w", err)
	}
	return n > 0, nil
}

// slugTakenByOtherPublished: слаг занят другой опубликованной картой прямо сейчас.
func slugTakenByOtherPublished(ctx context.Context, tx *sql.Tx, chartID int64, slug string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`select count(*) from charts where "is_published" and config->>'slug' = $1 and "id" <> $2`,
		slug, chartID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("published slug lookup: %w", err)
	}
	return n > 0, nil
}

// recordRedirect фиксирует «слаг раньше вёл на эту карту». Только insert,
// удаления нет — редиректы живут вечно. Повторная запись того же слага —
// ошибка вызывающего (unique index по slug).
func recordRedirect(ctx context.Context, tx *sql.Tx, chartID int64, slug string) error {
	if _, err := tx.ExecContext(ctx,
		`insert into chart_slug_redirects ("chart_id", "slug") values ($1, $2)`,
		chartID, slug); err != nil {
		return fmt.Errorf("record redirect: %w", err)
	}
	return nil
}
