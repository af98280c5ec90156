package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/tile-match/internal/api"
	"github.com/annel0/tile-match/internal/auth"
	"github.com/annel0/tile-match/internal/config"
	"github.com/annel0/tile-match/internal/eventbus"
	"github.com/annel0/tile-match/internal/game"
	"github.com/annel0/tile-match/internal/level"
	"github.com/annel0/tile-match/internal/logging"
	"github.com/annel0/tile-match/internal/observability"
	"github.com/annel0/tile-match/internal/progress"
	"github.com/annel0/tile-match/internal/save"
	"github.com/annel0/tile-match/internal/storage"
)

func main() {
	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🀄 Запуск Tile-Match Game Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load("")
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{} // дефолты по env/fallback
		logging.Info("Конфигурационный файл не задан, используются значения по умолчанию")
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	dataPath := cfg.Storage.GetDataPath()
	logging.Info("📡 Конфигурация сервера: REST API=%s, данные=%s", restPort, dataPath)

	// === ТЕЛЕМЕТРИЯ ===
	ctx := context.Background()
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "tile-match")
	if err != nil {
		// Без коллектора сервер работает, просто без трейсов
		logging.Warn("OpenTelemetry не инициализирован: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		retention := time.Duration(cfg.EventBus.Retention) * time.Hour
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, retention)
		if err != nil {
			logging.Warn("JetStream недоступен (%v), используется in-memory шина", err)
			bus = eventbus.NewMemoryBus(1024)
		} else {
			logging.Info("✅ Шина событий: NATS JetStream %s", cfg.EventBus.URL)
			bus = jsBus
			defer jsBus.Close()
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
		logging.Info("✅ Шина событий: in-memory")
	}
	eventbus.Init(bus)

	busMetrics := eventbus.NewMetricsExporter(bus)
	busMetrics.Start(15 * time.Second)
	defer busMetrics.Stop()

	// === КАТАЛОГ УРОВНЕЙ ===
	catalogPath := cfg.Levels.CatalogPath
	if catalogPath == "" {
		catalogPath = "assets/levels.json"
	}
	catalog, err := level.LoadCatalog(catalogPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки каталога уровней: %v", err)
		log.Fatalf("❌ Ошибка загрузки каталога уровней: %v", err)
	}

	// === ХРАНИЛИЩЕ СЕЙВОВ ===
	var store storage.SaveStore
	switch cfg.Storage.Backend {
	case "file":
		store, err = storage.NewFileStore(dataPath + "/saves")
	default:
		store, err = storage.NewBadgerStore(dataPath)
	}
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища сейвов: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища сейвов: %v", err)
	}

	if cfg.Storage.UseMirror {
		mirror, merr := storage.NewMirrorStore(store, cfg.Storage.Redis.Addr,
			cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if merr != nil {
			logging.Warn("Зеркало Redis недоступно: %v", merr)
		} else {
			logging.Info("✅ Сейвы зеркалируются в Redis %s", cfg.Storage.Redis.Addr)
			store = mirror
		}
	}
	defer store.Close()

	// === РЕПОЗИТОРИЙ ИГРОКОВ ===
	var playerRepo auth.PlayerRepository
	switch cfg.Auth.Repository {
	case "mariadb":
		repo, rerr := auth.NewMariaPlayerRepoDSN(cfg.Auth.MariaDSN)
		if rerr != nil {
			logging.Error("❌ MariaDB недоступна: %v", rerr)
			log.Fatalf("❌ MariaDB недоступна: %v", rerr)
		}
		defer repo.Close()
		playerRepo = repo
		logging.Info("✅ Репозиторий игроков: MariaDB")
	case "mongodb":
		repo, rerr := auth.NewMongoPlayerRepo(auth.MongoConfig{URI: cfg.Auth.MongoURI})
		if rerr != nil {
			logging.Error("❌ MongoDB недоступна: %v", rerr)
			log.Fatalf("❌ MongoDB недоступна: %v", rerr)
		}
		defer repo.Close()
		playerRepo = repo
		logging.Info("✅ Репозиторий игроков: MongoDB")
	default:
		repo, rerr := auth.NewMemoryPlayerRepo()
		if rerr != nil {
			log.Fatalf("❌ Ошибка создания репозитория игроков: %v", rerr)
		}
		playerRepo = repo
		logging.Info("✅ Репозиторий игроков: in-memory (test/test, admin/admin)")
	}

	if secret := cfg.Auth.GetJWTSecret(); secret != "dev-secret-change-me" {
		if err := auth.SetJWTSecretRaw(secret); err != nil {
			logging.Warn("JWT секрет из конфигурации отклонён: %v", err)
		}
	}

	// === ИГРОВЫЕ СЕРВИСЫ ===
	codec, err := save.NewCodec(cfg.Save.Passphrase, cfg.Save.Encrypt)
	if err != nil {
		log.Fatalf("❌ Ошибка создания кодека сейвов: %v", err)
	}
	progressSvc := progress.NewService(playerRepo, codec, store)

	sessions := game.NewManager(catalog)
	sessions.StartSweeper(time.Minute)
	defer sessions.Stop()

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:       restPort,
		PlayerRepo: playerRepo,
		Sessions:   sessions,
		Progress:   progressSvc,
	})

	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ REST сервер остановлен: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   🔐 JWT аутентификация активирована")
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("💡 Пример входа:")
	logging.Info("   curl -X POST http://localhost%s/api/auth/login -H 'Content-Type: application/json' -d '{\"username\":\"test\",\"password\":\"test\"}'", restPort)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Ждем сигнала для завершения
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки телеметрии: %v", err)
	}

	logging.Info("✅ Сервер остановлен")
}
