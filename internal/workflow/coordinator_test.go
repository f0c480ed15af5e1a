package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/retry"
)

// scriptedExecutor возвращает заранее заданные результаты по попыткам
// и записывает порядок вызовов.
type scriptedExecutor struct {
	mu       sync.Mutex
	script   []error // ошибка на каждую попытку; nil — успех
	result   string
	calls    int
	attempts []int // номера попыток в порядке вызова
}

func (e *scriptedExecutor) Execute(_ context.Context, inst *domain.WorkflowInstance) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++
	e.attempts = append(e.attempts, inst.Attempt)

	if e.calls <= len(e.script) && e.script[e.calls-1] != nil {
		return "", e.script[e.calls-1]
	}
	return e.result, nil
}

func fastPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:       maxAttempts,
		InitialBackoff:    time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        5 * time.Millisecond,
	}
}

func runningInstance(deadline time.Duration) *domain.WorkflowInstance {
	inst := domain.NewInstance(domain.KindReverse, "hello", "", time.Now().Add(deadline))
	inst.MarkRunning()
	return inst
}

func transientErr() error {
	return fmt.Errorf("%w: simulated timeout", domain.ErrTransient)
}

func TestCoordinator_SucceedsFirstAttempt(t *testing.T) {
	c := New(Config{Policy: fastPolicy(3)})
	exec := &scriptedExecutor{result: "olleh"}
	inst := runningInstance(time.Minute)

	c.Run(context.Background(), inst, exec)

	if inst.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", inst.Status, inst.Error)
	}
	if inst.Result != "olleh" {
		t.Errorf("expected result olleh, got %q", inst.Result)
	}
	if inst.Attempt != 1 {
		t.Errorf("expected 1 attempt, got %d", inst.Attempt)
	}
}

func TestCoordinator_RetriesThenCompletes(t *testing.T) {
	// Попытки 1–2 падают, попытка 3 успешна, maxAttempts=3
	c := New(Config{Policy: fastPolicy(3)})
	exec := &scriptedExecutor{
		script: []error{transientErr(), transientErr(), nil},
		result: "third time lucky",
	}
	inst := runningInstance(time.Minute)

	c.Run(context.Background(), inst, exec)

	if inst.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", inst.Status, inst.Error)
	}
	if inst.Result != "third time lucky" {
		t.Errorf("expected attempt-3 result, got %q", inst.Result)
	}
	if inst.Attempt != 3 {
		t.Errorf("expected 3 attempts, got %d", inst.Attempt)
	}
}

func TestCoordinator_ExhaustsRetryBudget(t *testing.T) {
	// Тот же сценарий с maxAttempts=2 — FAILED
	c := New(Config{Policy: fastPolicy(2)})
	exec := &scriptedExecutor{
		script: []error{transientErr(), transientErr(), nil},
	}
	inst := runningInstance(time.Minute)

	c.Run(context.Background(), inst, exec)

	if inst.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", inst.Status)
	}
	if exec.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", exec.calls)
	}
	if inst.Error == "" {
		t.Error("failed instance must carry the last error")
	}
}

func TestCoordinator_FatalFailsImmediately(t *testing.T) {
	c := New(Config{Policy: fastPolicy(5)})
	exec := &scriptedExecutor{
		script: []error{fmt.Errorf("%w: input too long", domain.ErrValidation)},
	}
	inst := runningInstance(time.Minute)

	c.Run(context.Background(), inst, exec)

	if inst.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", inst.Status)
	}
	if exec.calls != 1 {
		t.Errorf("fatal failure must not consume further attempts, got %d calls", exec.calls)
	}
}

func TestCoordinator_AttemptsStrictlyIncreasing(t *testing.T) {
	c := New(Config{Policy: fastPolicy(4)})
	exec := &scriptedExecutor{
		script: []error{transientErr(), transientErr(), transientErr(), nil},
		result: "done",
	}
	inst := runningInstance(time.Minute)

	c.Run(context.Background(), inst, exec)

	for i, attempt := range exec.attempts {
		if attempt != i+1 {
			t.Fatalf("attempt numbers must be strictly increasing from 1, got %v", exec.attempts)
		}
	}
	if inst.Attempt > 4 {
		t.Errorf("attempts must not exceed maxAttempts, got %d", inst.Attempt)
	}
}

func TestCoordinator_DeadlineForcesTimedOut(t *testing.T) {
	// Щедрая политика, но короткий общий дедлайн: instance обязан
	// завершиться TIMED_OUT, а не крутить retry
	c := New(Config{
		Policy: retry.Policy{
			MaxAttempts:       100,
			InitialBackoff:    20 * time.Millisecond,
			BackoffMultiplier: 1.0,
			MaxBackoff:        20 * time.Millisecond,
		},
	})
	exec := &scriptedExecutor{
		script: make([]error, 100),
	}
	for i := range exec.script {
		exec.script[i] = transientErr()
	}
	inst := runningInstance(50 * time.Millisecond)

	c.Run(context.Background(), inst, exec)

	if inst.Status != domain.StatusTimedOut {
		t.Fatalf("expected TIMED_OUT, got %s", inst.Status)
	}
	if inst.Error == "" {
		t.Error("timed out instance must carry a reason")
	}
}

func TestCoordinator_ExpiredDeadlineWithoutAttempt(t *testing.T) {
	// Просроченное задание (воркер получил его после дедлайна)
	c := New(Config{Policy: fastPolicy(3)})
	exec := &scriptedExecutor{result: "never"}
	inst := runningInstance(-time.Second)

	c.Run(context.Background(), inst, exec)

	if inst.Status != domain.StatusTimedOut {
		t.Fatalf("expected TIMED_OUT, got %s", inst.Status)
	}
	if exec.calls != 0 {
		t.Errorf("expired instance must not execute activity, got %d calls", exec.calls)
	}
}

func TestCoordinator_CancelledContextLeavesRunning(t *testing.T) {
	c := New(Config{Policy: fastPolicy(3)})

	ctx, cancel := context.WithCancel(context.Background())
	exec := &scriptedExecutor{
		script: []error{transientErr(), transientErr(), transientErr()},
	}
	inst := runningInstance(time.Minute)

	cancel()
	c.Run(ctx, inst, exec)

	// Останов воркера — instance не финализируется, уйдёт в redelivery
	if inst.Status != domain.StatusRunning {
		t.Fatalf("expected RUNNING after cancellation, got %s", inst.Status)
	}
}

func TestCoordinator_ConcurrentInstancesAreIsolated(t *testing.T) {
	// Две одновременные отправки с разными id не перемешивают попытки:
	// у каждого instance своя строго последовательная нумерация
	c := New(Config{Policy: fastPolicy(3)})

	run := func(result string) *domain.WorkflowInstance {
		inst := runningInstance(time.Minute)
		exec := &scriptedExecutor{
			script: []error{transientErr(), nil},
			result: result,
		}
		c.Run(context.Background(), inst, exec)

		for i, attempt := range exec.attempts {
			if attempt != i+1 {
				t.Errorf("instance %s: attempts out of order: %v", inst.ID, exec.attempts)
			}
		}
		return inst
	}

	var wg sync.WaitGroup
	results := make([]*domain.WorkflowInstance, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = run(fmt.Sprintf("result-%d", i))
		}(i)
	}
	wg.Wait()

	if results[0].ID == results[1].ID {
		t.Fatal("concurrent instances must have distinct ids")
	}
	for i, inst := range results {
		if inst.Status != domain.StatusCompleted {
			t.Errorf("instance %d: expected COMPLETED, got %s", i, inst.Status)
		}
		if inst.Result != fmt.Sprintf("result-%d", i) {
			t.Errorf("instance %d: result crossed instances: %q", i, inst.Result)
		}
	}
}
