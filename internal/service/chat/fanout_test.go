package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"lingyin_social_server/internal/dto/respond"
)

// stubDirectory 固定成员表的目录桩
type stubDirectory struct {
	participants map[string][]string
	contacts     map[string][]string
	err          error
}

func (d *stubDirectory) GetActiveParticipants(conversationId string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.participants[conversationId], nil
}

func (d *stubDirectory) GetContactsOf(userId string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.contacts[userId], nil
}

// stubPresence 部分用户在线的状态桩，sessionId 为 "s_"+userId
type stubPresence struct {
	online map[string]bool
}

func (p *stubPresence) IsOnline(userId string) bool {
	return p.online[userId]
}

func (p *stubPresence) SessionOf(userId string) (string, bool) {
	if !p.online[userId] {
		return "", false
	}
	return "s_" + userId, true
}

// stubPusher 记录投递结果的推送桩
type stubPusher struct {
	pushed     []string // 收到推送的 sessionId
	messageIds []int64
	envelopes  [][]byte
	failFor    map[string]bool // 指定会话推送失败
}

func (p *stubPusher) Push(sessionId string, envelope []byte, messageId int64) error {
	if p.failFor[sessionId] {
		return errors.New("push failed")
	}
	p.pushed = append(p.pushed, sessionId)
	p.messageIds = append(p.messageIds, messageId)
	p.envelopes = append(p.envelopes, envelope)
	return nil
}

func newTestEngine(directory *stubDirectory, presence *stubPresence, pusher *stubPusher) *FanOutEngine {
	engine := NewFanOutEngine(directory, presence)
	engine.SetPusher(pusher)
	return engine
}

// 混合在线状态：三人会话两人在线，事件只送达在线的两人，离线者直接丢弃
func TestNotifyDropsOfflineRecipients(t *testing.T) {
	directory := &stubDirectory{
		participants: map[string][]string{"C1": {"U1", "U2", "U3"}},
	}
	presence := &stubPresence{online: map[string]bool{"U1": true, "U2": true}}
	pusher := &stubPusher{}
	engine := newTestEngine(directory, presence, pusher)

	engine.Notify(context.Background(), Event{
		Type:           EventNewMessage,
		ConversationId: "C1",
		ActorId:        "U1",
		MessageId:      42,
		Payload:        respond.MessageRespond{MessageId: 42},
	})

	if len(pusher.pushed) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(pusher.pushed))
	}
	sort.Strings(pusher.pushed)
	if pusher.pushed[0] != "s_U1" || pusher.pushed[1] != "s_U2" {
		t.Fatalf("unexpected recipients: %v", pusher.pushed)
	}
	// 新消息事件携带 MessageId 供网关补记送达
	for _, id := range pusher.messageIds {
		if id != 42 {
			t.Fatalf("expected messageId 42, got %d", id)
		}
	}
}

// 新消息事件发送者自己也在受众内（多端同步回显）
func TestNotifyIncludesActorForMessages(t *testing.T) {
	directory := &stubDirectory{
		participants: map[string][]string{"C1": {"U1", "U2"}},
	}
	presence := &stubPresence{online: map[string]bool{"U1": true, "U2": true}}
	pusher := &stubPusher{}
	engine := newTestEngine(directory, presence, pusher)

	engine.Notify(context.Background(), Event{
		Type:           EventNewMessage,
		ConversationId: "C1",
		ActorId:        "U1",
	})

	found := false
	for _, sessionId := range pusher.pushed {
		if sessionId == "s_U1" {
			found = true
		}
	}
	if !found {
		t.Fatal("actor should receive its own message event")
	}
}

// 正在输入指示不发给当事人自己
func TestTypingExcludesActor(t *testing.T) {
	directory := &stubDirectory{
		participants: map[string][]string{"C1": {"U1", "U2", "U3"}},
	}
	presence := &stubPresence{online: map[string]bool{"U1": true, "U2": true, "U3": true}}
	pusher := &stubPusher{}
	engine := newTestEngine(directory, presence, pusher)

	engine.Notify(context.Background(), Event{
		Type:           EventTypingIndicator,
		ConversationId: "C1",
		ActorId:        "U2",
		Payload:        respond.TypingRespond{ConversationId: "C1", UserId: "U2"},
	})

	if len(pusher.pushed) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(pusher.pushed))
	}
	for _, sessionId := range pusher.pushed {
		if sessionId == "s_U2" {
			t.Fatal("typing indicator pushed back to actor")
		}
	}
}

// 上下线事件按联系人全集扩散
func TestUserStatusChangedUsesContacts(t *testing.T) {
	directory := &stubDirectory{
		contacts: map[string][]string{"U1": {"U2", "U3"}},
	}
	presence := &stubPresence{online: map[string]bool{"U2": true, "U3": false}}
	pusher := &stubPusher{}
	engine := newTestEngine(directory, presence, pusher)

	engine.Notify(context.Background(), Event{
		Type:    EventUserStatusChanged,
		ActorId: "U1",
		Payload: respond.UserStatusRespond{UserId: "U1", Online: true},
	})

	if len(pusher.pushed) != 1 || pusher.pushed[0] != "s_U2" {
		t.Fatalf("unexpected recipients: %v", pusher.pushed)
	}
}

// 受众解析失败时整个事件静默丢弃
func TestNotifyDropsEventOnDirectoryError(t *testing.T) {
	directory := &stubDirectory{err: errors.New("db down")}
	presence := &stubPresence{online: map[string]bool{"U1": true}}
	pusher := &stubPusher{}
	engine := newTestEngine(directory, presence, pusher)

	engine.Notify(context.Background(), Event{
		Type:           EventNewMessage,
		ConversationId: "C1",
		ActorId:        "U1",
	})

	if len(pusher.pushed) != 0 {
		t.Fatalf("expected no pushes, got %d", len(pusher.pushed))
	}
}

// 单个接收者推送失败不影响其余接收者
func TestNotifyIsolatesPerRecipientFailure(t *testing.T) {
	directory := &stubDirectory{
		participants: map[string][]string{"C1": {"U1", "U2", "U3"}},
	}
	presence := &stubPresence{online: map[string]bool{"U1": true, "U2": true, "U3": true}}
	pusher := &stubPusher{failFor: map[string]bool{"s_U2": true}}
	engine := newTestEngine(directory, presence, pusher)

	engine.Notify(context.Background(), Event{
		Type:           EventNewMessage,
		ConversationId: "C1",
		ActorId:        "U1",
	})

	if len(pusher.pushed) != 2 {
		t.Fatalf("expected 2 successful pushes, got %d", len(pusher.pushed))
	}
}

// 信封格式：type/data/timestamp 三字段
func TestNotifyEnvelopeFormat(t *testing.T) {
	directory := &stubDirectory{
		participants: map[string][]string{"C1": {"U1"}},
	}
	presence := &stubPresence{online: map[string]bool{"U1": true}}
	pusher := &stubPusher{}
	engine := newTestEngine(directory, presence, pusher)

	at := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	engine.Notify(context.Background(), Event{
		Type:           EventTypingIndicator,
		ConversationId: "C1",
		ActorId:        "U9",
		Payload:        respond.TypingRespond{ConversationId: "C1", UserId: "U9"},
		Timestamp:      at,
	})

	if len(pusher.envelopes) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(pusher.envelopes))
	}
	var envelope struct {
		Type      string          `json:"type"`
		Data      json.RawMessage `json:"data"`
		Timestamp string          `json:"timestamp"`
	}
	if err := json.Unmarshal(pusher.envelopes[0], &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Type != string(EventTypingIndicator) {
		t.Fatalf("unexpected type: %s", envelope.Type)
	}
	if envelope.Timestamp != at.Format("2006-01-02 15:04:05") {
		t.Fatalf("unexpected timestamp: %s", envelope.Timestamp)
	}
	var payload respond.TypingRespond
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.UserId != "U9" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

// 未知事件类型整体丢弃而不是 panic
func TestNotifyDropsUnknownEventType(t *testing.T) {
	directory := &stubDirectory{}
	presence := &stubPresence{online: map[string]bool{}}
	pusher := &stubPusher{}
	engine := newTestEngine(directory, presence, pusher)

	engine.Notify(context.Background(), Event{Type: EventType("bogus")})

	if len(pusher.pushed) != 0 {
		t.Fatalf("expected no pushes, got %d", len(pusher.pushed))
	}
}
