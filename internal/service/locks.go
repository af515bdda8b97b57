package service

import (
	"sync"

	"github.com/google/uuid"
)

// ContractLocks сериализует проверку и запись объёмов в пределах одного
// контракта: конкурентные создания заявок и правки totalVolume не могут
// пройти валидацию по одному и тому же устаревшему остатку. Один экземпляр
// делят все сервисы, работающие с резервом контракта.
type ContractLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewContractLocks() *ContractLocks {
	return &ContractLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Acquire блокирует контракт и возвращает функцию разблокировки.
func (l *ContractLocks) Acquire(contractID uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[contractID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[contractID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
