package dedup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-unimessage/internal/domain"
)

func TestGuard_Admit(t *testing.T) {
	t.Parallel()
	base := time.Now()

	t.Run("窗口内同一接收者只放行count次", func(t *testing.T) {
		t.Parallel()
		g := NewGuard()
		cfg := &domain.DedupConfig{IntervalSeconds: 60, Count: 1}
		assert.True(t, g.Admit(1, "13800000001", cfg, base))
		assert.False(t, g.Admit(1, "13800000001", cfg, base.Add(30*time.Second)))
		// 窗口滑出后重新放行
		assert.True(t, g.Admit(1, "13800000001", cfg, base.Add(61*time.Second)))
	})

	t.Run("count大于1", func(t *testing.T) {
		t.Parallel()
		g := NewGuard()
		cfg := &domain.DedupConfig{IntervalSeconds: 10, Count: 3}
		for i := 0; i < 3; i++ {
			assert.True(t, g.Admit(1, "a", cfg, base.Add(time.Duration(i)*time.Second)))
		}
		assert.False(t, g.Admit(1, "a", cfg, base.Add(5*time.Second)))
		// 最早一条滑出后放出一个名额
		assert.True(t, g.Admit(1, "a", cfg, base.Add(10*time.Second)))
	})

	t.Run("模板之间互不影响", func(t *testing.T) {
		t.Parallel()
		g := NewGuard()
		cfg := &domain.DedupConfig{IntervalSeconds: 60, Count: 1}
		assert.True(t, g.Admit(1, "a", cfg, base))
		assert.True(t, g.Admit(2, "a", cfg, base))
	})

	t.Run("无配置始终放行", func(t *testing.T) {
		t.Parallel()
		g := NewGuard()
		for i := 0; i < 10; i++ {
			assert.True(t, g.Admit(1, "a", nil, base))
		}
		assert.True(t, g.Admit(1, "a", &domain.DedupConfig{}, base))
	})
}

func TestGuard_Purge(t *testing.T) {
	t.Parallel()
	g := NewGuard()
	cfg := &domain.DedupConfig{IntervalSeconds: 1, Count: 1}
	base := time.Now()
	g.Admit(1, "a", cfg, base)
	g.Purge(base.Add(2 * time.Second))
	// 清理后等同于首次发送
	assert.True(t, g.Admit(1, "a", cfg, base.Add(2*time.Second)))
}

func TestGuard_Concurrent(t *testing.T) {
	t.Parallel()
	g := NewGuard()
	cfg := &domain.DedupConfig{IntervalSeconds: 60, Count: 1}
	now := time.Now()

	const goroutines = 50
	var admitted int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if g.Admit(7, "race", cfg, now) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), admitted)
}
