package auth

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MariaConfig содержит настройки подключения к MariaDB
type MariaConfig struct {
	Host     string // например, localhost
	Port     int    // например, 3306
	Database string // например, tilematch
	Username string // пользователь БД
	Password string // пароль БД
}

// MariaPlayerRepo реализует PlayerRepository для MariaDB
type MariaPlayerRepo struct {
	db *sql.DB
}

// NewMariaPlayerRepo создает новое подключение к MariaDB и возвращает репозиторий
func NewMariaPlayerRepo(cfg MariaConfig) (*MariaPlayerRepo, error) {
	// Устанавливаем значения по умолчанию
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.Database == "" {
		cfg.Database = "tilematch"
	}

	// Формируем DSN (Data Source Name)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	return NewMariaPlayerRepoDSN(dsn)
}

// NewMariaPlayerRepoDSN открывает подключение по готовому DSN
func NewMariaPlayerRepoDSN(dsn string) (*MariaPlayerRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть подключение к MariaDB: %w", err)
	}

	// Проверяем подключение
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	repo := &MariaPlayerRepo{db: db}

	// Создаем таблицы, если их нет
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("не удалось создать таблицы: %w", err)
	}

	return repo, nil
}

// createTables создает необходимые таблицы в БД
func (m *MariaPlayerRepo) createTables() error {
	// Таблица игроков с полями прогресса кампании
	createPlayersTable := `
	CREATE TABLE IF NOT EXISTS players (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		max_unlocked_level INT NOT NULL DEFAULT 1,
		current_level INT NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_login TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`

	if _, err := m.db.Exec(createPlayersTable); err != nil {
		return fmt.Errorf("не удалось создать таблицу players: %w", err)
	}

	return nil
}

// GetPlayerByUsername получает игрока по имени
func (m *MariaPlayerRepo) GetPlayerByUsername(username string) (*Player, error) {
	lower := strings.ToLower(username)

	query := `SELECT id, username, password_hash, is_admin, max_unlocked_level, current_level, created_at, last_login
			  FROM players WHERE username = ?`

	var player Player
	err := m.db.QueryRow(query, lower).Scan(
		&player.ID,
		&player.Username,
		&player.PasswordHash,
		&player.IsAdmin,
		&player.MaxUnlockedLevel,
		&player.CurrentLevel,
		&player.CreatedAt,
		&player.LastLogin,
	)

	if err == sql.ErrNoRows {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении игрока: %w", err)
	}

	return &player, nil
}

// GetPlayerByID получает игрока по идентификатору
func (m *MariaPlayerRepo) GetPlayerByID(id uint64) (*Player, error) {
	query := `SELECT id, username, password_hash, is_admin, max_unlocked_level, current_level, created_at, last_login
			  FROM players WHERE id = ?`

	var player Player
	err := m.db.QueryRow(query, id).Scan(
		&player.ID,
		&player.Username,
		&player.PasswordHash,
		&player.IsAdmin,
		&player.MaxUnlockedLevel,
		&player.CurrentLevel,
		&player.CreatedAt,
		&player.LastLogin,
	)

	if err == sql.ErrNoRows {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении игрока: %w", err)
	}

	return &player, nil
}

// CreatePlayer создает нового игрока
func (m *MariaPlayerRepo) CreatePlayer(username string, passwordHash string, isAdmin bool) (*Player, error) {
	lower := strings.ToLower(username)
	now := time.Now()

	query := `INSERT INTO players (username, password_hash, is_admin, max_unlocked_level, current_level, created_at, last_login)
			  VALUES (?, ?, ?, 1, 1, ?, ?)`

	result, err := m.db.Exec(query, lower, passwordHash, isAdmin, now, now)
	if err != nil {
		// Проверяем на дублирование игрока
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil, ErrPlayerExists
		}
		return nil, fmt.Errorf("ошибка при создании игрока: %w", err)
	}

	// Получаем ID созданного игрока
	playerID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении ID игрока: %w", err)
	}

	return &Player{
		ID:               uint64(playerID),
		Username:         lower,
		PasswordHash:     passwordHash,
		IsAdmin:          isAdmin,
		MaxUnlockedLevel: 1,
		CurrentLevel:     1,
		CreatedAt:        now,
		LastLogin:        now,
	}, nil
}

// ValidateCredentials проверяет учетные данные и обновляет время входа
func (m *MariaPlayerRepo) ValidateCredentials(username, password string) (*Player, error) {
	player, err := m.GetPlayerByUsername(username)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(player.PasswordHash, password) {
		return nil, ErrPlayerNotFound
	}

	// Обновляем время последнего входа
	if _, err := m.db.Exec(`UPDATE players SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, player.ID); err != nil {
		return nil, fmt.Errorf("ошибка при обновлении времени входа: %w", err)
	}

	return player, nil
}

// UpdateProgress сохраняет прогресс кампании игрока
func (m *MariaPlayerRepo) UpdateProgress(id uint64, maxUnlockedLevel, currentLevel int) error {
	query := `UPDATE players SET max_unlocked_level = ?, current_level = ? WHERE id = ?`

	result, err := m.db.Exec(query, maxUnlockedLevel, currentLevel, id)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении прогресса: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке обновления: %w", err)
	}
	if affected == 0 {
		// Либо игрока нет, либо прогресс не изменился — различаем запросом
		if _, err := m.GetPlayerByID(id); err != nil {
			return err
		}
	}

	return nil
}

// Close закрывает подключение к БД
func (m *MariaPlayerRepo) Close() error {
	return m.db.Close()
}
