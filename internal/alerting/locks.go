package alerting

import "sync"

// keyedLocks 按告警 ID 串行化同一条告警上的并发变更：
// 确认到达、定时器触发、投递状态回写可能同时落在同一记录上。
type keyedLocks struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

type lockEntry struct {
	sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[uint]*lockEntry)}
}

// Lock 获取 id 对应的锁，返回解锁函数
func (k *keyedLocks) Lock(id uint) func() {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &lockEntry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.Mutex.Lock()
	return func() {
		e.Mutex.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
