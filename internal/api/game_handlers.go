package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annel0/tile-match/internal/backpack"
	"github.com/annel0/tile-match/internal/game"
	"github.com/annel0/tile-match/internal/logging"
	"github.com/annel0/tile-match/internal/progress"
)

// StartLevelRequest представляет запрос на старт уровня
type StartLevelRequest struct {
	Ordinal int `json:"ordinal"`
}

// PickTileRequest представляет запрос на перенос плитки в рюкзак
type PickTileRequest struct {
	Index int `json:"index"`
}

// EliminatePairRequest представляет запрос на снятие пары из рюкзака
type EliminatePairRequest struct {
	First  int `json:"first"`
	Second int `json:"second"`
}

// SetCurrentLevelRequest представляет запрос на смену текущего уровня
type SetCurrentLevelRequest struct {
	Ordinal int `json:"ordinal"`
}

// handleStartLevel создаёт игровую сессию. Без явного ординала
// стартует текущий уровень игрока из сейва.
func (rs *RestServer) handleStartLevel(c *gin.Context) {
	playerID := currentPlayerID(c)

	// Тело запроса опционально: без него стартует текущий уровень
	var req StartLevelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Неверный формат запроса",
			})
			return
		}
	}

	data, err := rs.progress.Load(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Не удалось прочитать прогресс",
		})
		return
	}

	ordinal := req.Ordinal
	if ordinal == 0 {
		ordinal = data.CurrentLevel
	}
	// Уровень должен быть открыт
	if ordinal < 1 || ordinal > data.MaxUnlockedLevel {
		c.JSON(http.StatusForbidden, GenericResponse{
			Success: false,
			Message: "Уровень ещё не открыт",
		})
		return
	}

	session, err := rs.sessions.StartLevel(c.Request.Context(), playerID, ordinal)
	if err != nil {
		logging.Error("Старт уровня %d для игрока %d: %v", ordinal, playerID, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Не удалось создать сессию",
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Уровень начат",
		Data:    session.Snapshot(),
	})
}

// sessionForRequest находит сессию и проверяет её принадлежность игроку
func (rs *RestServer) sessionForRequest(c *gin.Context) (*game.Session, bool) {
	session, err := rs.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Сессия не найдена",
		})
		return nil, false
	}
	if session.PlayerID != currentPlayerID(c) {
		c.JSON(http.StatusForbidden, GenericResponse{
			Success: false,
			Message: "Чужая сессия",
		})
		return nil, false
	}
	return session, true
}

// handleSessionState возвращает снапшот сессии
func (rs *RestServer) handleSessionState(c *gin.Context) {
	session, ok := rs.sessionForRequest(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние сессии",
		Data:    session.Snapshot(),
	})
}

// handlePickTile переносит плитку с поля в рюкзак
func (rs *RestServer) handlePickTile(c *gin.Context) {
	session, ok := rs.sessionForRequest(c)
	if !ok {
		return
	}

	var req PickTileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	result, err := session.PickTile(c.Request.Context(), req.Index)
	if err != nil {
		rs.respondGameError(c, err)
		return
	}

	// Победа двигает прогресс кампании
	if result.Status == game.StatusWon {
		rs.completeLevel(c, session)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Плитка перенесена",
		Data: map[string]interface{}{
			"result":   result,
			"snapshot": session.Snapshot(),
		},
	})
}

// handleEliminatePair снимает пару из рюкзака по предикату
func (rs *RestServer) handleEliminatePair(c *gin.Context) {
	session, ok := rs.sessionForRequest(c)
	if !ok {
		return
	}

	var req EliminatePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if err := session.EliminatePair(c.Request.Context(), req.First, req.Second); err != nil {
		rs.respondGameError(c, err)
		return
	}

	if session.Status() == game.StatusWon {
		rs.completeLevel(c, session)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Пара снята",
		Data:    session.Snapshot(),
	})
}

// handleExtendBackpack разово расширяет рюкзак сессии
func (rs *RestServer) handleExtendBackpack(c *gin.Context) {
	session, ok := rs.sessionForRequest(c)
	if !ok {
		return
	}

	if err := session.ExtendBackpack(c.Request.Context()); err != nil {
		rs.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Рюкзак расширен",
		Data:    session.Snapshot(),
	})
}

// handleGetProgress возвращает сейв игрока
func (rs *RestServer) handleGetProgress(c *gin.Context) {
	data, err := rs.progress.Load(c.Request.Context(), currentPlayerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Не удалось прочитать прогресс",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Прогресс игрока",
		Data:    data,
	})
}

// handleSetCurrentLevel переводит игрока на открытый уровень
func (rs *RestServer) handleSetCurrentLevel(c *gin.Context) {
	var req SetCurrentLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	data, err := rs.progress.SetCurrent(c.Request.Context(), currentPlayerID(c), req.Ordinal)
	if errors.Is(err, progress.ErrLevelLocked) {
		c.JSON(http.StatusForbidden, GenericResponse{
			Success: false,
			Message: "Уровень ещё не открыт",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Не удалось сохранить прогресс",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Текущий уровень изменён",
		Data:    data,
	})
}

// completeLevel фиксирует победу в сервисе прогресса.
// Ошибка записи не ломает ответ клиенту: победа уже состоялась.
func (rs *RestServer) completeLevel(c *gin.Context, session *game.Session) {
	snap := session.Snapshot()
	if _, err := rs.progress.Complete(c.Request.Context(), session.PlayerID, snap.Ordinal); err != nil {
		logging.Error("Прогресс игрока %d после победы не записан: %v", session.PlayerID, err)
	}
}

// respondGameError переводит доменные ошибки в HTTP-статусы
func (rs *RestServer) respondGameError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrFinished):
		status = http.StatusConflict
	case errors.Is(err, game.ErrBadIndex), errors.Is(err, game.ErrTileGone):
		status = http.StatusBadRequest
	case errors.Is(err, backpack.ErrFull), errors.Is(err, backpack.ErrNoMatch),
		errors.Is(err, backpack.ErrAlreadyExtended):
		status = http.StatusConflict
	}

	c.JSON(status, GenericResponse{
		Success: false,
		Message: err.Error(),
	})
}
