package reference

// Directory описывает один yaml-справочник (например, properties.yaml —
// допустимые роли переменной на карте: y, x, size, color...).
type Directory struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

type Item struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	Order int    `yaml:"order,omitempty"`
}

// Has проверяет наличие кода в справочнике.
func (d Directory) Has(code string) bool {
	for _, it := range d.Items {
		if it.Code == code {
			return true
		}
	}
	return false
}
