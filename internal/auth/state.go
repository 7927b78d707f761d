package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultStateTTL はstateエントリの有効期間のデフォルト。
const defaultStateTTL = 10 * time.Minute

// stateEntry はstate値に紐付くリダイレクト元と期限を保持する。
type stateEntry struct {
	origin    string
	expiresAt time.Time
}

// StateCache はOAuthリダイレクト往復を発信元と関連付けるアンチフォージェリ用の
// 短命な相関ストア。プロセスメモリ内でのみ保持され、プロセス再起動や複数
// インスタンス間では共有されない。全エントリは単一使用で、個別の期限を持つ。
// 期限切れエントリはConsume時に拒否され、スイープジョブでも回収される。
type StateCache struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	ttl     time.Duration

	// テストで時刻を差し替えるためのフック。
	now func() time.Time
}

// NewStateCache はStateCacheを生成する。
// ttlが0以下の場合はデフォルト（10分）を使う。
func NewStateCache(ttl time.Duration) *StateCache {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateCache{
		entries: make(map[string]stateEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Generate は新しいstate値を生成し、originと関連付けて保存する。
func (c *StateCache) Generate(origin string) string {
	state := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[state] = stateEntry{
		origin:    origin,
		expiresAt: c.now().Add(c.ttl),
	}

	return state
}

// Consume はstateに紐付くoriginを返し、エントリを削除する（単一使用）。
// 未知のstate、または期限切れのstateはok=falseを返す。
func (c *StateCache) Consume(state string) (origin string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[state]
	if !exists {
		return "", false
	}
	delete(c.entries, state)

	if c.now().After(entry.expiresAt) {
		return "", false
	}

	return entry.origin, true
}

// SweepExpired は期限切れエントリを削除し、削除件数を返す。
// トークンスイープと同じ周期で呼ばれる。
func (c *StateCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	deleted := 0
	for state, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, state)
			deleted++
		}
	}

	return deleted
}

// Len は現在保持しているエントリ数を返す。テストおよびメトリクス用。
func (c *StateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
