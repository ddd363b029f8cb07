package usecases

import (
	"sync"

	"chatdagang/internal/entities"
)

// NoticeThrottle enforces at most one "service unavailable" notice per
// conversation between gate passes. Process-lifetime state only: losing it on
// restart re-sends one redundant notice, which is acceptable.
type NoticeThrottle struct {
	mu   sync.RWMutex
	sent map[string]bool
}

func NewNoticeThrottle() *NoticeThrottle {
	return &NoticeThrottle{sent: make(map[string]bool)}
}

// ShouldNotify reports whether no notice has gone out for this conversation
// since the last gate pass. Callers mark only after a successful send, so a
// failed notice is retried on the next blocked turn.
func (t *NoticeThrottle) ShouldNotify(key entities.ConversationKey) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.sent[key.String()]
}

func (t *NoticeThrottle) MarkNotified(key entities.ConversationKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent[key.String()] = true
}

// Clear resets the conversation the moment its gates pass again, so the next
// failure notifies anew.
func (t *NoticeThrottle) Clear(key entities.ConversationKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sent, key.String())
}
