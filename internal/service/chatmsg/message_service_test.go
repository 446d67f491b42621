package chatmsg

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/dto/respond"
	"lingyin_social_server/internal/model"
	"lingyin_social_server/internal/service/chat"
	"lingyin_social_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
)

// opLog 记录关键副作用的发生顺序，用于断言先持久化后扇出
type opLog struct {
	ops []string
}

func (l *opLog) add(op string) { l.ops = append(l.ops, op) }

// ==================== 桩 ====================

type stubMessageRepo struct {
	log      *opLog
	messages map[int64]*model.Message
}

func (r *stubMessageRepo) FindByUuid(uuid int64) (*model.Message, error) {
	message, ok := r.messages[uuid]
	if !ok {
		return nil, errorx.New(errorx.CodeNotFound, "消息不存在")
	}
	return message, nil
}
func (r *stubMessageRepo) FindByConversationUuid(conversationUuid string) ([]model.Message, error) {
	var list []model.Message
	for _, message := range r.messages {
		if message.ConversationId == conversationUuid {
			list = append(list, *message)
		}
	}
	return list, nil
}
func (r *stubMessageRepo) Create(message *model.Message) error {
	r.log.add("persist")
	message.CreatedAt = time.Now()
	r.messages[message.Uuid] = message
	return nil
}
func (r *stubMessageRepo) UpdateContent(uuid int64, content string) error {
	r.log.add("update")
	if message, ok := r.messages[uuid]; ok {
		message.Content = content
		message.IsEdited = 1
	}
	return nil
}
func (r *stubMessageRepo) UpdateReactions(uuid int64, reactions string) error {
	if message, ok := r.messages[uuid]; ok {
		message.Reactions = reactions
	}
	return nil
}
func (r *stubMessageRepo) SoftDeleteByUuid(uuid int64) error {
	r.log.add("delete")
	delete(r.messages, uuid)
	return nil
}
func (r *stubMessageRepo) CountSentAfter(conversationUuid, excludeSenderId string, after time.Time) (int64, error) {
	return 0, nil
}

type stubMemberRepo struct {
	members map[string][]string // conversationId -> userIds
}

func (r *stubMemberRepo) FindByConversationUuid(conversationUuid string) ([]model.ConversationMember, error) {
	return nil, nil
}
func (r *stubMemberRepo) FindUserIdsByConversationUuid(conversationUuid string) ([]string, error) {
	return r.members[conversationUuid], nil
}
func (r *stubMemberRepo) FindConversationUuidsByUserId(userId string) ([]string, error) {
	return nil, nil
}
func (r *stubMemberRepo) FindMember(conversationUuid, userId string) (*model.ConversationMember, error) {
	for _, id := range r.members[conversationUuid] {
		if id == userId {
			return &model.ConversationMember{ConversationId: conversationUuid, UserId: userId}, nil
		}
	}
	return nil, errorx.New(errorx.CodeNotFound, "成员不存在")
}
func (r *stubMemberRepo) CreateMembers(members []model.ConversationMember) error { return nil }
func (r *stubMemberRepo) UpdateLastSeenAt(conversationUuid, userId string, at time.Time) error {
	return nil
}
func (r *stubMemberRepo) DeleteMember(conversationUuid, userId string) error     { return nil }
func (r *stubMemberRepo) DeleteByConversationUuid(conversationUuid string) error { return nil }

type stubConversationRepo struct{}

func (r *stubConversationRepo) FindByUuid(uuid string) (*model.Conversation, error) {
	return &model.Conversation{Uuid: uuid}, nil
}
func (r *stubConversationRepo) FindByUuids(uuids []string) ([]model.Conversation, error) {
	return nil, nil
}
func (r *stubConversationRepo) Create(conversation *model.Conversation) error { return nil }
func (r *stubConversationRepo) Update(conversation *model.Conversation) error { return nil }
func (r *stubConversationRepo) UpdateLastMessage(uuid string, preview string, at time.Time) error {
	return nil
}
func (r *stubConversationRepo) SoftDeleteByUuid(uuid string) error { return nil }

type stubUserRepo struct{}

func (r *stubUserRepo) FindByUuid(uuid string) (*model.UserInfo, error) {
	return &model.UserInfo{Uuid: uuid, Nickname: "nick_" + uuid}, nil
}
func (r *stubUserRepo) FindByTelephone(telephone string) (*model.UserInfo, error) { return nil, nil }
func (r *stubUserRepo) FindByUuids(uuids []string) ([]model.UserInfo, error)      { return nil, nil }
func (r *stubUserRepo) CreateUser(user *model.UserInfo) error                     { return nil }
func (r *stubUserRepo) UpdateUserInfo(user *model.UserInfo) error                 { return nil }
func (r *stubUserRepo) UpdateOnlineState(uuid string, at time.Time, online bool) error {
	return nil
}

// stubTracker 记录回执初始化的接收者集合
type stubTracker struct {
	log        *opLog
	recipients map[int64][]string
	readMarked []int64
}

func (t *stubTracker) InitializeForMessage(messageId int64, recipientIds []string) error {
	t.log.add("receipts")
	t.recipients[messageId] = recipientIds
	return nil
}
func (t *stubTracker) MarkDelivered(messageId int64, recipientId string) error { return nil }
func (t *stubTracker) MarkRead(messageId int64, recipientId string) error {
	t.readMarked = append(t.readMarked, messageId)
	return nil
}
func (t *stubTracker) MarkAllRead(conversationId, userId string) (time.Time, error) {
	return time.Now(), nil
}
func (t *stubTracker) CountRead(messageId int64) (int64, error) { return 1, nil }
func (t *stubTracker) GetStatus(messageId int64, recipientId string) (*respond.MessageStatusRespond, error) {
	return nil, nil
}
func (t *stubTracker) UnreadCount(conversationId, userId string) (int64, error) { return 0, nil }
func (t *stubTracker) InvalidateUnread(conversationId string)                   {}

// stubDirectorySvc 基于成员桩的目录
type stubDirectorySvc struct {
	memberRepo *stubMemberRepo
}

func (d *stubDirectorySvc) GetActiveParticipants(conversationId string) ([]string, error) {
	return d.memberRepo.members[conversationId], nil
}
func (d *stubDirectorySvc) GetConversationsFor(userId string) ([]string, error) { return nil, nil }
func (d *stubDirectorySvc) GetContactsOf(userId string) ([]string, error)       { return nil, nil }
func (d *stubDirectorySvc) InvalidateConversation(conversationId string)        {}

// stubPusher 记录推送顺序的 Pusher
type stubPusher struct {
	log       *opLog
	envelopes [][]byte
	sessions  []string
}

func (p *stubPusher) Push(sessionId string, envelope []byte, messageId int64) error {
	p.log.add("push")
	p.sessions = append(p.sessions, sessionId)
	p.envelopes = append(p.envelopes, envelope)
	return nil
}

// allOnlinePresence 所有用户都在线
type allOnlinePresence struct{}

func (allOnlinePresence) IsOnline(userId string) bool { return true }
func (allOnlinePresence) SessionOf(userId string) (string, bool) {
	return "s_" + userId, true
}

// noopCache 空缓存，SubmitTask 同步执行
type noopCache struct{}

func (noopCache) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }
func (noopCache) Get(ctx context.Context, key string) (string, error)                 { return "", nil }
func (noopCache) GetOrError(ctx context.Context, key string) (string, error)          { return "", redis.Nil }
func (noopCache) Delete(ctx context.Context, key string) error                        { return nil }
func (noopCache) DeleteByPattern(ctx context.Context, pattern string) error           { return nil }
func (noopCache) SubmitTask(action func())                                            { action() }

func newTestService(members map[string][]string) (*messageService, *opLog, *stubTracker, *stubPusher, *stubMessageRepo) {
	log := &opLog{}
	messageRepo := &stubMessageRepo{log: log, messages: make(map[int64]*model.Message)}
	memberRepo := &stubMemberRepo{members: members}
	tracker := &stubTracker{log: log, recipients: make(map[int64][]string)}
	directorySvc := &stubDirectorySvc{memberRepo: memberRepo}
	pusher := &stubPusher{log: log}

	engine := chat.NewFanOutEngine(directorySvc, allOnlinePresence{})
	engine.SetPusher(pusher)

	svc := NewService(messageRepo, memberRepo, &stubConversationRepo{}, &stubUserRepo{},
		tracker, directorySvc, engine, noopCache{})
	return svc, log, tracker, pusher, messageRepo
}

// 发送消息的顺序约束：入库 -> 回执初始化 -> 推送
func TestSendMessagePersistBeforeNotify(t *testing.T) {
	svc, log, _, _, _ := newTestService(map[string][]string{"C1": {"U1", "U2"}})

	if _, err := svc.SendMessage("U1", request.SendMessageRequest{
		ConversationId: "C1",
		Type:           model.MessageTypeText,
		Content:        "hello",
	}); err != nil {
		t.Fatal(err)
	}

	persistIdx, receiptsIdx, pushIdx := -1, -1, -1
	for i, op := range log.ops {
		switch op {
		case "persist":
			persistIdx = i
		case "receipts":
			receiptsIdx = i
		case "push":
			if pushIdx == -1 {
				pushIdx = i
			}
		}
	}
	if persistIdx == -1 || receiptsIdx == -1 || pushIdx == -1 {
		t.Fatalf("missing operations: %v", log.ops)
	}
	if !(persistIdx < receiptsIdx && receiptsIdx < pushIdx) {
		t.Fatalf("wrong order: %v", log.ops)
	}
}

// 回执只为发送者之外的成员创建
func TestSendMessageExcludesSenderFromReceipts(t *testing.T) {
	svc, _, tracker, _, _ := newTestService(map[string][]string{"C1": {"U1", "U2", "U3"}})

	rsp, err := svc.SendMessage("U1", request.SendMessageRequest{
		ConversationId: "C1",
		Type:           model.MessageTypeText,
		Content:        "hi",
	})
	if err != nil {
		t.Fatal(err)
	}

	recipients := tracker.recipients[rsp.MessageId]
	if len(recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %v", recipients)
	}
	for _, id := range recipients {
		if id == "U1" {
			t.Fatal("sender must not get a receipt")
		}
	}
}

// 非会话成员发送被拒绝，不产生任何副作用
func TestSendMessageNonMemberForbidden(t *testing.T) {
	svc, log, _, _, _ := newTestService(map[string][]string{"C1": {"U1", "U2"}})

	if _, err := svc.SendMessage("U9", request.SendMessageRequest{
		ConversationId: "C1",
		Content:        "intruder",
	}); err != errorx.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(log.ops) != 0 {
		t.Fatalf("no side effects expected, got %v", log.ops)
	}
}

// 编辑他人消息被拒绝
func TestEditMessageOnlySender(t *testing.T) {
	svc, _, _, _, messageRepo := newTestService(map[string][]string{"C1": {"U1", "U2"}})
	rsp, err := svc.SendMessage("U1", request.SendMessageRequest{
		ConversationId: "C1",
		Content:        "original",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.EditMessage("U2", request.EditMessageRequest{
		MessageId: rsp.MessageId,
		Content:   "hacked",
	}); err != errorx.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if messageRepo.messages[rsp.MessageId].Content != "original" {
		t.Fatal("content must not change")
	}

	edited, err := svc.EditMessage("U1", request.EditMessageRequest{
		MessageId: rsp.MessageId,
		Content:   "fixed",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !edited.IsEdited || edited.Content != "fixed" {
		t.Fatalf("unexpected edit result: %+v", edited)
	}
}

// 标记自己发送的消息已读是空操作，不扩散事件
func TestMarkReadOwnMessageNoop(t *testing.T) {
	svc, log, tracker, _, _ := newTestService(map[string][]string{"C1": {"U1", "U2"}})
	rsp, err := svc.SendMessage("U1", request.SendMessageRequest{
		ConversationId: "C1",
		Content:        "hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	before := len(log.ops)

	if err := svc.MarkRead("U1", rsp.MessageId); err != nil {
		t.Fatal(err)
	}
	if len(tracker.readMarked) != 0 {
		t.Fatal("own message must not be marked read")
	}
	if len(log.ops) != before {
		t.Fatal("no events expected for own-message read")
	}
}

// 已读事件扩散给会话全体成员并携带已读人数
func TestMarkReadBroadcastsReadStatus(t *testing.T) {
	svc, _, _, pusher, _ := newTestService(map[string][]string{"C1": {"U1", "U2"}})
	rsp, err := svc.SendMessage("U1", request.SendMessageRequest{
		ConversationId: "C1",
		Content:        "hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	pusher.envelopes = nil

	if err := svc.MarkRead("U2", rsp.MessageId); err != nil {
		t.Fatal(err)
	}

	if len(pusher.envelopes) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(pusher.envelopes))
	}
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(pusher.envelopes[0], &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Type != string(chat.EventReadStatusUpdated) {
		t.Fatalf("unexpected event type: %s", envelope.Type)
	}
	var payload respond.ReadStatusRespond
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.ReaderId != "U2" || payload.ReadCount != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

// WebSocket 入站帧分发：send_message 帧走完整发送链路
func TestHandleFrameSendMessage(t *testing.T) {
	svc, log, _, _, _ := newTestService(map[string][]string{"C1": {"U1", "U2"}})

	frame, _ := json.Marshal(request.ClientFrame{
		Op:             request.OpSendMessage,
		SenderId:       "U1",
		ConversationId: "C1",
		Content:        "via ws",
	})
	svc.HandleFrame(context.Background(), frame)

	if len(log.ops) == 0 || log.ops[0] != "persist" {
		t.Fatalf("frame did not reach send pipeline: %v", log.ops)
	}
}

// 未知操作的帧被丢弃
func TestHandleFrameUnknownOp(t *testing.T) {
	svc, log, _, _, _ := newTestService(map[string][]string{"C1": {"U1"}})

	frame, _ := json.Marshal(request.ClientFrame{Op: "bogus", SenderId: "U1"})
	svc.HandleFrame(context.Background(), frame)

	if len(log.ops) != 0 {
		t.Fatalf("unknown op must be dropped, got %v", log.ops)
	}
}
