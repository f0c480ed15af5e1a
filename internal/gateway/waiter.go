package gateway

import "sync"

// Completion — результат завершения workflow instance,
// доставляемый ожидающему вызывающему.
type Completion struct {
	WorkflowID string
	Status     string
	Result     string
	Error      string
	Attempts   int
	ElapsedMs  int64
}

// waiterRegistry — реестр ожидающих вызовов по workflow id.
//
// Ожидание оформлено как явный отменяемый future: вызывающий получает
// канал ёмкости 1 и снимает регистрацию по своему таймауту. Медленный
// instance не удерживает ресурсы на стороне gateway — его результат
// просто будет отброшен.
type waiterRegistry struct {
	mu      sync.Mutex
	waiters map[string]chan Completion
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{waiters: make(map[string]chan Completion)}
}

// register создаёт waiter для workflow id.
// Канал имеет ёмкость 1: fulfill не блокируется, даже если
// вызывающий уже ушёл по таймауту.
func (r *waiterRegistry) register(workflowID string) chan Completion {
	ch := make(chan Completion, 1)

	r.mu.Lock()
	r.waiters[workflowID] = ch
	r.mu.Unlock()

	return ch
}

// unregister снимает waiter (по получению результата или таймауту).
func (r *waiterRegistry) unregister(workflowID string) {
	r.mu.Lock()
	delete(r.waiters, workflowID)
	r.mu.Unlock()
}

// fulfill доставляет результат ожидающему, если он ещё есть.
// Возвращает true, если waiter найден.
func (r *waiterRegistry) fulfill(c Completion) bool {
	r.mu.Lock()
	ch, ok := r.waiters[c.WorkflowID]
	if ok {
		delete(r.waiters, c.WorkflowID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	ch <- c
	return true
}

// pendingIDs возвращает id всех зарегистрированных waiters.
// Используется polling-fallback'ом.
func (r *waiterRegistry) pendingIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.waiters))
	for id := range r.waiters {
		ids = append(ids, id)
	}
	return ids
}

// size возвращает количество ожидающих вызовов.
func (r *waiterRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
