package presence

import (
	"fmt"
	"sync"
	"testing"
)

// TestRegisterAndIsOnline 基本注册/查询
func TestRegisterAndIsOnline(t *testing.T) {
	r := NewRegistry()

	if r.IsOnline("U42") {
		t.Fatal("expected U42 offline before register")
	}

	r.Register("U42", "S1")
	if !r.IsOnline("U42") {
		t.Fatal("expected U42 online after register")
	}

	sessionId, ok := r.SessionOf("U42")
	if !ok || sessionId != "S1" {
		t.Fatalf("SessionOf = %q, %v, want S1, true", sessionId, ok)
	}
	userId, ok := r.UserOf("S1")
	if !ok || userId != "U42" {
		t.Fatalf("UserOf = %q, %v, want U42, true", userId, ok)
	}
}

// TestSupersession 同一用户二次注册顶替旧会话
// 顶替后注销旧会话是空操作，注销新会话才使用户离线
func TestSupersession(t *testing.T) {
	r := NewRegistry()

	r.Register("U42", "S1")
	replaced := r.Register("U42", "S2")
	if replaced != "S1" {
		t.Fatalf("replaced = %q, want S1", replaced)
	}
	if !r.IsOnline("U42") {
		t.Fatal("expected U42 online after supersession")
	}

	// 被顶替会话的反向条目应已被清理
	if _, ok := r.UserOf("S1"); ok {
		t.Fatal("expected S1 reverse mapping removed after supersession")
	}

	// 注销旧会话：空操作，不影响在线状态
	userId, ok := r.Unregister("S1")
	if ok || userId != "" {
		t.Fatalf("Unregister(S1) = %q, %v, want no-op", userId, ok)
	}
	if !r.IsOnline("U42") {
		t.Fatal("expected U42 still online after unregistering superseded session")
	}

	// 注销新会话：用户离线
	userId, ok = r.Unregister("S2")
	if !ok || userId != "U42" {
		t.Fatalf("Unregister(S2) = %q, %v, want U42, true", userId, ok)
	}
	if r.IsOnline("U42") {
		t.Fatal("expected U42 offline after unregistering S2")
	}
}

// TestUnregisterUnknownSession 未知会话注销是空操作
func TestUnregisterUnknownSession(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Unregister("S-unknown"); ok {
		t.Fatal("expected unknown session unregister to be a no-op")
	}

	// 重复注销同样是空操作
	r.Register("U1", "S1")
	r.Unregister("S1")
	if _, ok := r.Unregister("S1"); ok {
		t.Fatal("expected duplicate unregister to be a no-op")
	}
}

// TestBidirectionalInvariant 并发注册/注销后正反向映射互为逆映射
func TestBidirectionalInvariant(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userId := fmt.Sprintf("U%d", n)
			for j := 0; j < 20; j++ {
				sessionId := fmt.Sprintf("S%d-%d", n, j)
				r.Register(userId, sessionId)
				if j%3 == 0 {
					r.Unregister(sessionId)
				}
			}
		}(i)
	}
	wg.Wait()

	// 静止点校验：每个正向绑定都有一致的反向绑定
	for i := 0; i < shardCount; i++ {
		r.users[i].mu.RLock()
		for userId, sessionId := range r.users[i].sessions {
			got, ok := r.UserOf(sessionId)
			if !ok || got != userId {
				t.Fatalf("forward %s->%s has inconsistent reverse mapping %q, %v", userId, sessionId, got, ok)
			}
		}
		r.users[i].mu.RUnlock()
	}
	for i := 0; i < shardCount; i++ {
		r.sessions[i].mu.RLock()
		for sessionId, userId := range r.sessions[i].users {
			got, ok := r.SessionOf(userId)
			if !ok || got != sessionId {
				t.Fatalf("reverse %s->%s has inconsistent forward mapping %q, %v", sessionId, userId, got, ok)
			}
		}
		r.sessions[i].mu.RUnlock()
	}
}

// TestConcurrentRegisterUnregisterSameUser 同一用户的并发注册/注销不破坏映射一致性
func TestConcurrentRegisterUnregisterSameUser(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sessionId := fmt.Sprintf("S%d", n)
			r.Register("U42", sessionId)
			r.Unregister(sessionId)
		}(i)
	}
	wg.Wait()

	// 所有会话都注销后用户应离线，或仅剩一条一致的绑定
	if sessionId, ok := r.SessionOf("U42"); ok {
		userId, reverseOk := r.UserOf(sessionId)
		if !reverseOk || userId != "U42" {
			t.Fatalf("dangling binding: forward U42->%s reverse %q, %v", sessionId, userId, reverseOk)
		}
	}
	if r.IsOnline("U42") {
		// 在线则必有一致反向映射，已在上面校验过
		t.Log("U42 still online with consistent binding (acceptable interleaving)")
	}
}
