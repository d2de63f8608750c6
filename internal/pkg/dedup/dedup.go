package dedup

import (
	"sync"
	"time"

	"go-unimessage/internal/domain"
)

// Guard 滑动窗口去重。
// 以（模板ID，接收地址）为粒度记录最近的发送时间戳，窗口内已达上限的请求被拒绝。
// count 的语义取窗口内最大发送次数，而不是历史总量。
// 状态按模板分片，各模板独立加锁，互不串扰。
type Guard struct {
	mu        sync.RWMutex
	templates map[int64]*templateLog
}

type templateLog struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	times    []time.Time
	interval time.Duration
}

func NewGuard() *Guard {
	return &Guard{templates: make(map[int64]*templateLog)}
}

// Admit 判定此次发送是否放行，放行时记录时间戳。
// 没有有效去重配置时始终放行且不记录。
func (g *Guard) Admit(templateID int64, address string, cfg *domain.DedupConfig, now time.Time) bool {
	if !cfg.Valid() {
		return true
	}

	tl := g.templateLog(templateID)
	tl.mu.Lock()
	defer tl.mu.Unlock()

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	s, ok := tl.slots[address]
	if !ok {
		s = &slot{}
		tl.slots[address] = s
	}
	s.interval = interval
	s.evict(now)

	if len(s.times) >= cfg.Count {
		return false
	}
	s.times = append(s.times, now)
	return true
}

// Purge 清理已经完全过期的记录，由定时任务周期调用
func (g *Guard) Purge(now time.Time) {
	g.mu.RLock()
	logs := make([]*templateLog, 0, len(g.templates))
	for _, tl := range g.templates {
		logs = append(logs, tl)
	}
	g.mu.RUnlock()

	for _, tl := range logs {
		tl.mu.Lock()
		for addr, s := range tl.slots {
			s.evict(now)
			if len(s.times) == 0 {
				delete(tl.slots, addr)
			}
		}
		tl.mu.Unlock()
	}
}

func (g *Guard) templateLog(templateID int64) *templateLog {
	g.mu.RLock()
	tl, ok := g.templates[templateID]
	g.mu.RUnlock()
	if ok {
		return tl
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if tl, ok = g.templates[templateID]; ok {
		return tl
	}
	tl = &templateLog{slots: make(map[string]*slot)}
	g.templates[templateID] = tl
	return tl
}

// evict 惰性淘汰窗口外的时间戳
func (s *slot) evict(now time.Time) {
	cut := 0
	for cut < len(s.times) && now.Sub(s.times[cut]) >= s.interval {
		cut++
	}
	if cut > 0 {
		s.times = append(s.times[:0], s.times[cut:]...)
	}
}
