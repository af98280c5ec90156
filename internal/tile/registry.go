package tile

import "sync"

// Descriptor описывает тип плитки: код и путь к 3D-модели
type Descriptor struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	ModelPath string `json:"model_path"`
}

var (
	registryMu sync.RWMutex
	registry   = make(map[ID]Descriptor)
)

// Register добавляет дескриптор плитки в регистр
func Register(desc Descriptor) {
	registryMu.Lock()
	registry[desc.ID] = desc
	registryMu.Unlock()
}

// Get возвращает дескриптор для указанного кода
func Get(id ID) (Descriptor, bool) {
	registryMu.RLock()
	desc, exists := registry[id]
	registryMu.RUnlock()
	return desc, exists
}

// IsRegistered проверяет, зарегистрирован ли код плитки
func IsRegistered(id ID) bool {
	registryMu.RLock()
	_, exists := registry[id]
	registryMu.RUnlock()
	return exists
}

// ResetRegistry очищает регистр (используется при перезагрузке каталога уровней)
func ResetRegistry() {
	registryMu.Lock()
	registry = make(map[ID]Descriptor)
	registryMu.Unlock()
}
