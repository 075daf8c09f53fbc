package reference

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCatalog читает все справочники из каталога (*.yaml / *.yml).
// Имя справочника — из Directory.Name или из имени файла.
func LoadCatalog(dir string) (map[string]Directory, error) {
	result := make(map[string]Directory)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if !strings.HasSuffix(file.Name(), ".yaml") && !strings.HasSuffix(file.Name(), ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, err
		}
		var d Directory
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		name := d.Name
		if name == "" {
			name = strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		}
		result[name] = d
	}
	return result, nil
}
