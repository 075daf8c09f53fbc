package chart

import "errors"

// Коды ошибок публикации. Транспорт маппит их в HTTP-статусы.
const (
	ErrRequired        = "required"
	ErrTypeMismatch    = "type_mismatch"
	ErrSlugInvalid     = "slug_invalid"
	ErrSlugConflict    = "slug_conflict"
	ErrPropertyUnknown = "property_unknown"
	ErrNotFound        = "not_found"
	ErrVersionConflict = "version_conflict"
	ErrPermission      = "permission_denied"
)

// Fault — структурная ошибка уровня сервиса: код + поле + сообщение для человека.
type Fault struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f *Fault) Error() string {
	if f.Field != "" {
		return f.Code + " (" + f.Field + "): " + f.Message
	}
	return f.Code + ": " + f.Message
}

func ferr(code, field, msg string) *Fault {
	return &Fault{Code: code, Field: field, Message: msg}
}

// AsFault достаёт *Fault из цепочки ошибок.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
