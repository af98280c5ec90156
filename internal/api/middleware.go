package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/annel0/tile-match/internal/auth"
)

// jwtMiddleware проверяет JWT токен в заголовке Authorization
func (rs *RestServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Получаем Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Отсутствует токен авторизации",
			})
			c.Abort()
			return
		}

		// Проверяем формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Неверный формат токена",
			})
			c.Abort()
			return
		}

		token := parts[1]

		// Валидируем JWT токен
		playerID, isValid, isAdmin := auth.ValidateJWT(token)
		if !isValid {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Недействительный токен",
			})
			c.Abort()
			return
		}

		// Сохраняем информацию об игроке в контексте
		c.Set("player_id", playerID)
		c.Set("is_admin", isAdmin)

		c.Next()
	}
}

// currentPlayerID извлекает идентификатор игрока из контекста запроса
func currentPlayerID(c *gin.Context) uint64 {
	if v, ok := c.Get("player_id"); ok {
		if id, ok := v.(uint64); ok {
			return id
		}
	}
	return 0
}
