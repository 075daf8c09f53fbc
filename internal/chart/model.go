package chart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dimension — привязка переменной к карте: роль (property) + порядок.
// display опционально несёт правки отображения; saveToVariable просит
// слить их в variables.display при публикации.
type Dimension struct {
	VariableID     int64          `json:"variableId"`
	Property       string         `json:"property"`
	Order          int            `json:"order"`
	Display        map[string]any `json:"display,omitempty"`
	SaveToVariable bool           `json:"saveToVariable,omitempty"`
}

// Config — конфигурационный документ карты. Системные поля распарсены,
// всё остальное (оси, цвета, прочая презентация) остаётся в raw как есть
// и сохраняется без интерпретации.
type Config struct {
	ID          int64
	Slug        string
	IsPublished bool
	Version     int64
	Dimensions  []Dimension

	raw map[string]any
}

// ParseConfig строго разбирает документ: системные поля коэрсятся,
// неизвестные — проходят насквозь.
func ParseConfig(obj map[string]any) (*Config, error) {
	if obj == nil {
		return nil, ferr(ErrRequired, "config", "configuration document is required")
	}
	c := &Config{raw: obj}

	if v, ok := obj["id"]; ok && v != nil {
		id, err := toIntStrict(v)
		if err != nil {
			return nil, ferr(ErrTypeMismatch, "id", "must be integer")
		}
		c.ID = id
	}
	if v, ok := obj["slug"]; ok && v != nil {
		s, err := toStringStrict(v)
		if err != nil {
			return nil, ferr(ErrTypeMismatch, "slug", "must be string")
		}
		c.Slug = s
	}
	if v, ok := obj["isPublished"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, ferr(ErrTypeMismatch, "isPublished", "must be bool")
		}
		c.IsPublished = b
	}
	if v, ok := obj["version"]; ok && v != nil {
		ver, err := toIntStrict(v)
		if err != nil {
			return nil, ferr(ErrTypeMismatch, "version", "must be integer")
		}
		c.Version = ver
	}

	dims, err := parseDimensions(obj["dimensions"])
	if err != nil {
		return nil, err
	}
	c.Dimensions = dims
	return c, nil
}

func parseDimensions(v any) ([]Dimension, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, ferr(ErrTypeMismatch, "dimensions", "must be array")
	}
	out := make([]Dimension, 0, len(arr))
	for i, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, ferr(ErrTypeMismatch, "dimensions", fmt.Sprintf("element %d must be object", i))
		}
		var d Dimension
		vid, err := toIntStrict(m["variableId"])
		if err != nil {
			return nil, ferr(ErrTypeMismatch, "dimensions", fmt.Sprintf("element %d: variableId must be integer", i))
		}
		d.VariableID = vid
		prop, err := toStringStrict(m["property"])
		if err != nil || strings.TrimSpace(prop) == "" {
			return nil, ferr(ErrRequired, "dimensions", fmt.Sprintf("element %d: property is required", i))
		}
		d.Property = prop
		if ov, ok := m["order"]; ok && ov != nil {
			o, err := toIntStrict(ov)
			if err != nil {
				return nil, ferr(ErrTypeMismatch, "dimensions", fmt.Sprintf("element %d: order must be integer", i))
			}
			d.Order = int(o)
		} else {
			d.Order = i
		}
		if dv, ok := m["display"]; ok && dv != nil {
			dm, ok := dv.(map[string]any)
			if !ok {
				return nil, ferr(ErrTypeMismatch, "dimensions", fmt.Sprintf("element %d: display must be object", i))
			}
			d.Display = dm
		}
		if sv, ok := m["saveToVariable"]; ok && sv != nil {
			b, ok := sv.(bool)
			if !ok {
				return nil, ferr(ErrTypeMismatch, "dimensions", fmt.Sprintf("element %d: saveToVariable must be bool", i))
			}
			d.SaveToVariable = b
		}
		out = append(out, d)
	}
	return out, nil
}

// Document возвращает полный документ с актуальными системными полями —
// ровно то, что уходит в charts.config.
func (c *Config) Document() map[string]any {
	out := make(map[string]any, len(c.raw)+4)
	for k, v := range c.raw {
		out[k] = v
	}
	out["id"] = c.ID
	out["version"] = c.Version
	out["isPublished"] = c.IsPublished
	if c.Slug != "" {
		out["slug"] = c.Slug
	} else {
		delete(out, "slug")
	}
	dims := make([]any, 0, len(c.Dimensions))
	for _, d := range c.Dimensions {
		dm := map[string]any{
			"variableId": d.VariableID,
			"property":   d.Property,
			"order":      d.Order,
		}
		if d.Display != nil {
			dm["display"] = d.Display
		}
		if d.SaveToVariable {
			dm["saveToVariable"] = true
		}
		dims = append(dims, dm)
	}
	out["dimensions"] = dims
	return out
}

// ==== строгие коэрсеры (JSON-числа приходят как float64) ====

func toStringStrict(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("must be string")
	}
	return s, nil
}

func toIntStrict(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) {
			return 0, errors.New("must be integer")
		}
		return int64(t), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, errors.New("must be integer")
		}
		return n, nil
	default:
		return 0, errors.New("must be integer")
	}
}

// Summary — проекция для списков админки.
type Summary struct {
	ID           int64      `json:"id"`
	Slug         string     `json:"slug,omitempty"`
	Title        string     `json:"title,omitempty"`
	IsPublished  bool       `json:"isPublished"`
	Version      int64      `json:"version"`
	Starred      bool       `json:"starred"`
	LastEditedAt time.Time  `json:"last_edited_at"`
	LastEditedBy string     `json:"last_edited_by,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// Revision — строка журнала chart_revisions.
type Revision struct {
	ID        string         `json:"id"`
	ChartID   int64          `json:"chart_id"`
	Version   int64          `json:"version"`
	Config    map[string]any `json:"config"`
	CreatedAt time.Time      `json:"created_at"`
	CreatedBy string         `json:"created_by,omitempty"`
}

// User — учётка админки; is_superuser открывает управление пользователями.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
