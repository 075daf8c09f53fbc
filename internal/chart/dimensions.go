package chart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// replaceDimensions переписывает привязки карты целиком: delete + bulk insert.
// Никакого диффа — после коммита строки ровно зеркалят dimensions документа.
// Пустой список просто очищает привязки.
func replaceDimensions(ctx context.Context, tx *sql.Tx, chartID int64, dims []Dimension) error {
	if _, err := tx.ExecContext(ctx,
		`delete from chart_dimensions where "chart_id" = $1`, chartID); err != nil {
		return fmt.Errorf("clear dimensions: %w", err)
	}
	for i, d := range dims {
		if _, err := tx.ExecContext(ctx,
			`insert into chart_dimensions ("chart_id", "variable_id", "property", "ord") values ($1, $2, $3, $4)`,
			chartID, d.VariableID, d.Property, d.Order); err != nil {
			return fmt.Errorf("insert dimension %d: %w", i, err)
		}
	}
	return nil
}

// propagateDisplay сливает display-патч измерения в variables.display:
// read-modify-write, последняя запись по ключу побеждает. Сериализация
// между конкурентными публикациями — только за счёт изоляции транзакции.
func propagateDisplay(ctx context.Context, tx *sql.Tx, variableID int64, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	var raw []byte
	err := tx.QueryRowContext(ctx,
		`select "display" from variables where "id" = $1 for update`, variableID).Scan(&raw)
	if err == sql.ErrNoRows {
		return ferr(ErrNotFound, "dimensions",
			fmt.Sprintf("variable %d not found", variableID))
	}
	if err != nil {
		return fmt.Errorf("read variable display: %w", err)
	}

	display := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &display); err != nil {
			return fmt.Errorf("decode variable %d display: %w", variableID, err)
		}
	}
	for k, v := range patch {
		display[k] = v
	}
	merged, err := json.Marshal(display)
	if err != nil {
		return fmt.Errorf("encode variable %d display: %w", variableID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`update variables set "display" = $1, "updated_at" = now() where "id" = $2`,
		merged, variableID); err != nil {
		return fmt.Errorf("write variable display: %w", err)
	}
	return nil
}
