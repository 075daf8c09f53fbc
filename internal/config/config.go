package config

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string `json:"port"`
	DBURL       string `json:"dbUrl"`
	AutoMigrate bool   `json:"autoMigrate"`

	// Справочники (yaml): каталог допустимых property для dimensions
	ReferenceDir string `json:"referenceDir"`

	GinMode string `json:"ginMode"` // "debug" (default) | "release" | "test"
}

func def() Config {
	return Config{
		Port:         "8080",
		DBURL:        "",
		AutoMigrate:  false,
		ReferenceDir: "reference",
		GinMode:      "debug",
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}

// LoadWithPath читает JSON по указанному пути, потом применяет ENV и флаги.
func LoadWithPath(jsonPath string) Config {
	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(jsonPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("KARTA_PORT", cfg.Port)
	cfg.DBURL = getenv("KARTA_DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("KARTA_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.ReferenceDir = getenv("KARTA_REFERENCE_DIR", cfg.ReferenceDir)
	cfg.GinMode = getenv("KARTA_GIN_MODE", cfg.GinMode)

	// Flags overrides
	configPath := flag.String("config", jsonPath, "Path to config JSON")
	port := flag.String("port", cfg.Port, "HTTP port")
	db := flag.String("db", cfg.DBURL, "Postgres URL")
	auto := flag.String("auto-migrate", strconv.FormatBool(cfg.AutoMigrate), "Apply DDL on startup (true/false)")
	ref := flag.String("reference", cfg.ReferenceDir, "Path to reference catalogs directory")
	mode := flag.String("gin-mode", cfg.GinMode, "Gin mode (debug/release/test)")

	flag.Parse()

	// Если через флаг передали другой конфиг — перечитаем
	if *configPath != jsonPath {
		return LoadWithPath(*configPath)
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.DBURL = strings.TrimSpace(*db)
	cfg.AutoMigrate = strings.EqualFold(strings.TrimSpace(*auto), "true") ||
		strings.EqualFold(strings.TrimSpace(*auto), "1") ||
		strings.EqualFold(strings.TrimSpace(*auto), "yes")
	cfg.ReferenceDir = strings.TrimSpace(*ref)
	cfg.GinMode = strings.TrimSpace(*mode)

	return cfg
}
