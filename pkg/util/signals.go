package util

import "sync"

// SignalHandler 信号回调
type SignalHandler func(sender any, params ...any)

// SignalHub 进程内信号总线，用于模块间解耦（创建告警 -> 触发分发等）
type SignalHub struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var (
	sigOnce sync.Once
	sigHub  *SignalHub
)

// Sig 全局信号总线
func Sig() *SignalHub {
	sigOnce.Do(func() {
		sigHub = &SignalHub{handlers: make(map[string][]SignalHandler)}
	})
	return sigHub
}

// Connect 注册信号监听
func (h *SignalHub) Connect(signal string, fn SignalHandler) {
	h.mu.Lock()
	h.handlers[signal] = append(h.handlers[signal], fn)
	h.mu.Unlock()
}

// Emit 同步触发信号，监听器内部自行决定是否异步
func (h *SignalHub) Emit(signal string, sender any, params ...any) {
	h.mu.RLock()
	hs := make([]SignalHandler, len(h.handlers[signal]))
	copy(hs, h.handlers[signal])
	h.mu.RUnlock()
	for _, fn := range hs {
		fn(sender, params...)
	}
}

// Reset 清空所有监听（测试用）
func (h *SignalHub) Reset() {
	h.mu.Lock()
	h.handlers = make(map[string][]SignalHandler)
	h.mu.Unlock()
}
