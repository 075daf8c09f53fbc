package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"karta/internal/api"
	"karta/internal/chart"
	"karta/internal/config"
	"karta/internal/pg"
	"karta/internal/reference"
)

func main() {
	cfg := config.LoadWithPath("karta.json")

	if cfg.DBURL == "" {
		log.Fatalf("Не задан адрес базы (KARTA_DB_URL или -db)")
	}

	// 1. Справочники (properties и прочие) — каталог может отсутствовать
	catalog, err := reference.LoadCatalog(cfg.ReferenceDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Справочники не найдены в %q — валидация property отключена", cfg.ReferenceDir)
			catalog = map[string]reference.Directory{}
		} else {
			log.Fatalf("Ошибка загрузки справочников: %v", err)
		}
	}
	fmt.Printf("Загружено справочников: %d\n", len(catalog))

	// 2. Postgres
	db, err := pg.Open(cfg.DBURL)
	if err != nil {
		log.Fatalf("Ошибка подключения к Postgres: %v", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := pg.ApplyDDL(db, pg.DDL()); err != nil {
			log.Fatalf("Ошибка применения DDL: %v", err)
		}
	}

	// 3. Хранилище и сервис публикации
	store := chart.NewStore(db)
	svc := chart.NewService(store, catalog)

	// 4. REST API
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	fmt.Printf("Стартуем сервер Karta на :%s...\n", cfg.Port)
	api.RunServer(":"+cfg.Port, api.Deps{
		Publisher: svc,
		Reader:    store,
		Writer:    store,
		Users:     store,
		Linter:    store,
		Catalog:   catalog,
	})
}
