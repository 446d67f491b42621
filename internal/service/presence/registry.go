// Package presence 实现在线状态注册表
// 维护 用户uuid <-> 连接会话id 的双向映射，回答"该用户当前能否被推送"。
// 注册表是依赖注入的实例而非进程级全局变量，测试可各自构造独立实例。
package presence

import (
	"hash/fnv"
	"sync"
)

// shardCount 分片数量，2 的幂便于取模
// 锁粒度到分片而非全表，高连接churn下不同用户的注册/注销互不阻塞
const shardCount = 64

// userShard 正向分片：用户uuid -> 会话id
type userShard struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// sessionShard 反向分片：会话id -> 用户uuid
type sessionShard struct {
	mu    sync.RWMutex
	users map[string]string
}

// Registry 在线状态注册表
// 不变式：静止时（无进行中的注册/注销）正反向映射互为逆映射，
// 一条绑定要么在两边都存在，要么都不存在
type Registry struct {
	users    [shardCount]*userShard
	sessions [shardCount]*sessionShard
}

// NewRegistry 创建注册表实例
func NewRegistry() *Registry {
	r := &Registry{}
	for i := 0; i < shardCount; i++ {
		r.users[i] = &userShard{sessions: make(map[string]string)}
		r.sessions[i] = &sessionShard{users: make(map[string]string)}
	}
	return r
}

// fnv32 计算分片下标用的哈希
func fnv32(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

func (r *Registry) userShardOf(userId string) *userShard {
	return r.users[fnv32(userId)%shardCount]
}

func (r *Registry) sessionShardOf(sessionId string) *sessionShard {
	return r.sessions[fnv32(sessionId)%shardCount]
}

// Register 建立 userId <-> sessionId 绑定
// 同一用户重复注册时旧会话被静默顶替（last-registered-wins），
// 不为旧会话合成下线事件；返回被顶替的旧会话id（无则为空串）。
// 任何时刻最多持有一把锁，分片间不存在锁序问题
func (r *Registry) Register(userId, sessionId string) (replaced string) {
	us := r.userShardOf(userId)
	us.mu.Lock()
	replaced = us.sessions[userId]
	us.sessions[userId] = sessionId
	us.mu.Unlock()

	ss := r.sessionShardOf(sessionId)
	ss.mu.Lock()
	ss.users[sessionId] = userId
	ss.mu.Unlock()

	// 清理被顶替会话的反向条目
	// 复核属主：并发注销可能已先一步删掉它
	if replaced != "" && replaced != sessionId {
		os := r.sessionShardOf(replaced)
		os.mu.Lock()
		if os.users[replaced] == userId {
			delete(os.users, replaced)
		}
		os.mu.Unlock()
	}
	return replaced
}

// Unregister 解除 sessionId 的绑定
// 返回绑定的用户uuid和 true；未知会话（已被顶替或重复注销）返回空串和 false。
// 被顶替会话的注销不会影响用户当前在线状态
func (r *Registry) Unregister(sessionId string) (userId string, ok bool) {
	ss := r.sessionShardOf(sessionId)
	ss.mu.Lock()
	userId, ok = ss.users[sessionId]
	if !ok {
		ss.mu.Unlock()
		return "", false
	}
	delete(ss.users, sessionId)
	ss.mu.Unlock()

	us := r.userShardOf(userId)
	us.mu.Lock()
	if us.sessions[userId] == sessionId {
		delete(us.sessions, userId)
		us.mu.Unlock()
		return userId, true
	}
	// 正向映射已指向新会话：本会话在注销过程中被顶替，视为空操作
	us.mu.Unlock()
	return "", false
}

// IsOnline 查询用户是否在线，纯查询无副作用
func (r *Registry) IsOnline(userId string) bool {
	us := r.userShardOf(userId)
	us.mu.RLock()
	_, ok := us.sessions[userId]
	us.mu.RUnlock()
	return ok
}

// SessionOf 查询用户当前绑定的会话id
func (r *Registry) SessionOf(userId string) (string, bool) {
	us := r.userShardOf(userId)
	us.mu.RLock()
	sessionId, ok := us.sessions[userId]
	us.mu.RUnlock()
	return sessionId, ok
}

// UserOf 查询会话绑定的用户uuid
func (r *Registry) UserOf(sessionId string) (string, bool) {
	ss := r.sessionShardOf(sessionId)
	ss.mu.RLock()
	userId, ok := ss.users[sessionId]
	ss.mu.RUnlock()
	return userId, ok
}

// OnlineCount 当前在线用户数
func (r *Registry) OnlineCount() int {
	count := 0
	for i := 0; i < shardCount; i++ {
		r.users[i].mu.RLock()
		count += len(r.users[i].sessions)
		r.users[i].mu.RUnlock()
	}
	return count
}
