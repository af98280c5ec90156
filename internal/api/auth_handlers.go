package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annel0/tile-match/internal/auth"
)

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	Message  string `json:"message"`
	PlayerID uint64 `json:"player_id,omitempty"`
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	// Проверяем учетные данные (репозиторий сам сверяет bcrypt-хеш)
	player, err := rs.playerRepo.ValidateCredentials(req.Username, req.Password)
	if err == auth.ErrPlayerNotFound {
		c.JSON(http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Неверное имя пользователя или пароль",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	// Генерируем JWT токен
	token, err := auth.GenerateJWT(player)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success:  true,
		Token:    token,
		Message:  "Успешная авторизация",
		PlayerID: player.ID,
	})
}

// handleRegister обрабатывает регистрацию нового игрока
func (rs *RestServer) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	// Валидация входных данных
	if len(req.Username) < 3 || len(req.Username) > 30 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Имя пользователя должно быть от 3 до 30 символов",
		})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Пароль должен быть минимум 6 символов",
		})
		return
	}

	// Хешируем пароль
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка обработки пароля",
		})
		return
	}

	player, err := rs.playerRepo.CreatePlayer(req.Username, passwordHash, false)
	if err == auth.ErrPlayerExists {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Имя пользователя занято",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Игрок зарегистрирован",
		Data: map[string]interface{}{
			"player_id": player.ID,
			"username":  player.Username,
		},
	})
}
