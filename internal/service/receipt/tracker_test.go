package receipt

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lingyin_social_server/internal/model"
	"lingyin_social_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
)

// ==================== 内存版 Repository 桩 ====================
// 各桩按接口约定复刻存储层的条件更新语义（唯一约束、WHERE 条件），
// 追踪器的幂等行为建立在这些约定之上

type receiptKey struct {
	messageId   int64
	recipientId string
}

type fakeReceiptRepo struct {
	receipts map[receiptKey]*model.MessageReceipt
	// updates 记录实际生效的更新次数，用于断言空操作
	updates int
	// messagesByConv 供 FindPendingMessageIds 回查会话消息
	messagesByConv map[string][]int64
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{
		receipts:       make(map[receiptKey]*model.MessageReceipt),
		messagesByConv: make(map[string][]int64),
	}
}

func (r *fakeReceiptRepo) BatchInsertIgnore(receipts []model.MessageReceipt) error {
	for i := range receipts {
		key := receiptKey{receipts[i].MessageId, receipts[i].RecipientId}
		if _, ok := r.receipts[key]; ok {
			continue
		}
		receipt := receipts[i]
		r.receipts[key] = &receipt
	}
	return nil
}

func (r *fakeReceiptRepo) MarkDelivered(messageId int64, recipientId string, at time.Time) error {
	receipt, ok := r.receipts[receiptKey{messageId, recipientId}]
	if !ok || receipt.Delivered {
		return nil
	}
	receipt.Delivered = true
	receipt.DeliveredAt = sql.NullTime{Time: at, Valid: true}
	r.updates++
	return nil
}

func (r *fakeReceiptRepo) MarkRead(messageId int64, recipientId string, at time.Time) error {
	receipt, ok := r.receipts[receiptKey{messageId, recipientId}]
	if !ok || receipt.ReadAt.Valid {
		return nil
	}
	receipt.ReadAt = sql.NullTime{Time: at, Valid: true}
	receipt.Delivered = true
	if !receipt.DeliveredAt.Valid {
		receipt.DeliveredAt = sql.NullTime{Time: at, Valid: true}
	}
	r.updates++
	return nil
}

func (r *fakeReceiptRepo) Find(messageId int64, recipientId string) (*model.MessageReceipt, error) {
	receipt, ok := r.receipts[receiptKey{messageId, recipientId}]
	if !ok {
		return nil, errorx.New(errorx.CodeNotFound, "回执不存在")
	}
	return receipt, nil
}

func (r *fakeReceiptRepo) CountRead(messageId int64) (int64, error) {
	var count int64
	for key, receipt := range r.receipts {
		if key.messageId == messageId && receipt.ReadAt.Valid {
			count++
		}
	}
	return count, nil
}

func (r *fakeReceiptRepo) FindPendingMessageIds(conversationUuid, recipientId string) ([]int64, error) {
	var ids []int64
	for _, messageId := range r.messagesByConv[conversationUuid] {
		receipt, ok := r.receipts[receiptKey{messageId, recipientId}]
		if !ok {
			continue
		}
		if !receipt.Delivered || !receipt.ReadAt.Valid {
			ids = append(ids, messageId)
		}
	}
	return ids, nil
}

type fakeMessageRepo struct {
	messages []model.Message
}

func (r *fakeMessageRepo) FindByUuid(uuid int64) (*model.Message, error) { return nil, nil }
func (r *fakeMessageRepo) FindByConversationUuid(conversationUuid string) ([]model.Message, error) {
	return nil, nil
}
func (r *fakeMessageRepo) Create(message *model.Message) error                  { return nil }
func (r *fakeMessageRepo) UpdateContent(uuid int64, content string) error       { return nil }
func (r *fakeMessageRepo) UpdateReactions(uuid int64, reactions string) error   { return nil }
func (r *fakeMessageRepo) SoftDeleteByUuid(uuid int64) error                    { return nil }
func (r *fakeMessageRepo) CountSentAfter(conversationUuid, excludeSenderId string, after time.Time) (int64, error) {
	var count int64
	for i := range r.messages {
		m := &r.messages[i]
		if m.ConversationId == conversationUuid && m.SenderId != excludeSenderId && m.CreatedAt.After(after) {
			count++
		}
	}
	return count, nil
}

type fakeMemberRepo struct {
	members map[string]*model.ConversationMember // key: conv|user
}

func memberKey(conversationUuid, userId string) string { return conversationUuid + "|" + userId }

func (r *fakeMemberRepo) FindByConversationUuid(conversationUuid string) ([]model.ConversationMember, error) {
	return nil, nil
}
func (r *fakeMemberRepo) FindUserIdsByConversationUuid(conversationUuid string) ([]string, error) {
	return nil, nil
}
func (r *fakeMemberRepo) FindConversationUuidsByUserId(userId string) ([]string, error) {
	return nil, nil
}
func (r *fakeMemberRepo) FindMember(conversationUuid, userId string) (*model.ConversationMember, error) {
	member, ok := r.members[memberKey(conversationUuid, userId)]
	if !ok {
		return nil, errorx.New(errorx.CodeNotFound, "成员不存在")
	}
	return member, nil
}
func (r *fakeMemberRepo) CreateMembers(members []model.ConversationMember) error { return nil }
func (r *fakeMemberRepo) UpdateLastSeenAt(conversationUuid, userId string, at time.Time) error {
	if member, ok := r.members[memberKey(conversationUuid, userId)]; ok {
		member.LastSeenAt = sql.NullTime{Time: at, Valid: true}
	}
	return nil
}
func (r *fakeMemberRepo) DeleteMember(conversationUuid, userId string) error       { return nil }
func (r *fakeMemberRepo) DeleteByConversationUuid(conversationUuid string) error   { return nil }

type fakeConversationRepo struct {
	conversations map[string]*model.Conversation
}

func (r *fakeConversationRepo) FindByUuid(uuid string) (*model.Conversation, error) {
	conversation, ok := r.conversations[uuid]
	if !ok {
		return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
	}
	return conversation, nil
}
func (r *fakeConversationRepo) FindByUuids(uuids []string) ([]model.Conversation, error) {
	return nil, nil
}
func (r *fakeConversationRepo) Create(conversation *model.Conversation) error { return nil }
func (r *fakeConversationRepo) Update(conversation *model.Conversation) error { return nil }
func (r *fakeConversationRepo) UpdateLastMessage(uuid string, preview string, at time.Time) error {
	return nil
}
func (r *fakeConversationRepo) SoftDeleteByUuid(uuid string) error { return nil }

// fakeCache 同步执行任务的内存缓存桩
type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{data: make(map[string]string)} }

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.data[key] = value
	return nil
}
func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	return c.data[key], nil
}
func (c *fakeCache) GetOrError(ctx context.Context, key string) (string, error) {
	value, ok := c.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}
func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}
func (c *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	// 测试里只按前缀清理
	prefix := pattern[:len(pattern)-1]
	for key := range c.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.data, key)
		}
	}
	return nil
}
func (c *fakeCache) SubmitTask(action func()) { action() }

// ==================== 测试 ====================

func newTestTracker() (*tracker, *fakeReceiptRepo, *fakeMessageRepo, *fakeMemberRepo, *fakeConversationRepo) {
	receiptRepo := newFakeReceiptRepo()
	messageRepo := &fakeMessageRepo{}
	memberRepo := &fakeMemberRepo{members: make(map[string]*model.ConversationMember)}
	conversationRepo := &fakeConversationRepo{conversations: make(map[string]*model.Conversation)}
	tk := NewTracker(receiptRepo, messageRepo, memberRepo, conversationRepo, newFakeCache()).(*tracker)
	return tk, receiptRepo, messageRepo, memberRepo, conversationRepo
}

// 回执初始化幂等：重复初始化不产生新记录也不覆盖已有状态
func TestInitializeForMessageIdempotent(t *testing.T) {
	tk, receiptRepo, _, _, _ := newTestTracker()

	if err := tk.InitializeForMessage(1, []string{"U2", "U3"}); err != nil {
		t.Fatal(err)
	}
	if err := tk.MarkDelivered(1, "U2"); err != nil {
		t.Fatal(err)
	}

	// 事件重放导致的二次初始化
	if err := tk.InitializeForMessage(1, []string{"U2", "U3"}); err != nil {
		t.Fatal(err)
	}

	if len(receiptRepo.receipts) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(receiptRepo.receipts))
	}
	receipt, err := receiptRepo.Find(1, "U2")
	if err != nil {
		t.Fatal(err)
	}
	if !receipt.Delivered {
		t.Fatal("re-initialization must not reset delivered state")
	}
}

// 重复标记送达是空操作，首次送达时间不被覆盖
func TestMarkDeliveredIdempotent(t *testing.T) {
	tk, receiptRepo, _, _, _ := newTestTracker()
	if err := tk.InitializeForMessage(1, []string{"U2"}); err != nil {
		t.Fatal(err)
	}

	if err := tk.MarkDelivered(1, "U2"); err != nil {
		t.Fatal(err)
	}
	first, _ := receiptRepo.Find(1, "U2")
	firstAt := first.DeliveredAt.Time

	if err := tk.MarkDelivered(1, "U2"); err != nil {
		t.Fatal(err)
	}
	if receiptRepo.updates != 1 {
		t.Fatalf("expected 1 effective update, got %d", receiptRepo.updates)
	}
	second, _ := receiptRepo.Find(1, "U2")
	if !second.DeliveredAt.Time.Equal(firstAt) {
		t.Fatal("delivered timestamp must not be overwritten")
	}
}

// 已读蕴含送达：未送达状态下直接标已读会补记送达
func TestMarkReadImpliesDelivered(t *testing.T) {
	tk, receiptRepo, _, _, _ := newTestTracker()
	if err := tk.InitializeForMessage(1, []string{"U2"}); err != nil {
		t.Fatal(err)
	}

	if err := tk.MarkRead(1, "U2"); err != nil {
		t.Fatal(err)
	}

	receipt, _ := receiptRepo.Find(1, "U2")
	if !receipt.Delivered || !receipt.DeliveredAt.Valid {
		t.Fatal("mark read must backfill delivered state")
	}
	if !receipt.ReadAt.Valid {
		t.Fatal("read_at not set")
	}
}

// 首次已读胜出：重复标记已读不改变首次已读时间
func TestMarkReadFirstWins(t *testing.T) {
	tk, receiptRepo, _, _, _ := newTestTracker()
	if err := tk.InitializeForMessage(1, []string{"U2"}); err != nil {
		t.Fatal(err)
	}

	if err := tk.MarkRead(1, "U2"); err != nil {
		t.Fatal(err)
	}
	first, _ := receiptRepo.Find(1, "U2")
	firstAt := first.ReadAt.Time

	if err := tk.MarkRead(1, "U2"); err != nil {
		t.Fatal(err)
	}
	second, _ := receiptRepo.Find(1, "U2")
	if !second.ReadAt.Time.Equal(firstAt) {
		t.Fatal("first read timestamp must win")
	}
	if receiptRepo.updates != 1 {
		t.Fatalf("expected 1 effective update, got %d", receiptRepo.updates)
	}
}

// 对不存在的回执（如发送者自己的消息）标记是空操作
func TestMarkReadUnknownReceiptNoop(t *testing.T) {
	tk, receiptRepo, _, _, _ := newTestTracker()
	if err := tk.MarkRead(99, "U1"); err != nil {
		t.Fatal(err)
	}
	if receiptRepo.updates != 0 {
		t.Fatal("marking a missing receipt must be a no-op")
	}
}

// 会话级批量已读处理全部待处理消息并推进 last_seen_at
func TestMarkAllRead(t *testing.T) {
	tk, receiptRepo, _, memberRepo, _ := newTestTracker()
	memberRepo.members[memberKey("C1", "U2")] = &model.ConversationMember{
		ConversationId: "C1", UserId: "U2",
	}
	receiptRepo.messagesByConv["C1"] = []int64{1, 2, 3}
	for _, messageId := range []int64{1, 2, 3} {
		if err := tk.InitializeForMessage(messageId, []string{"U2"}); err != nil {
			t.Fatal(err)
		}
	}
	// 其中一条已读过
	if err := tk.MarkRead(2, "U2"); err != nil {
		t.Fatal(err)
	}

	readAt, err := tk.MarkAllRead("C1", "U2")
	if err != nil {
		t.Fatal(err)
	}

	for _, messageId := range []int64{1, 2, 3} {
		receipt, _ := receiptRepo.Find(messageId, "U2")
		if !receipt.ReadAt.Valid {
			t.Fatalf("message %d not marked read", messageId)
		}
	}
	member := memberRepo.members[memberKey("C1", "U2")]
	if !member.LastSeenAt.Valid || !member.LastSeenAt.Time.Equal(readAt) {
		t.Fatal("last_seen_at not advanced")
	}

	count, err := tk.CountRead(2)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected read count 1, got %d", count)
	}
}

// 未读数边界：created_at 恰好等于 last_seen_at 的消息已读，晚 1 毫秒的未读；
// 自己发送的消息永远不计入
func TestUnreadCountBoundary(t *testing.T) {
	tk, _, messageRepo, memberRepo, _ := newTestTracker()
	lastSeen := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	memberRepo.members[memberKey("C1", "U2")] = &model.ConversationMember{
		ConversationId: "C1", UserId: "U2",
		LastSeenAt: sql.NullTime{Time: lastSeen, Valid: true},
	}

	atExactly := model.Message{ConversationId: "C1", SenderId: "U1"}
	atExactly.CreatedAt = lastSeen
	after := model.Message{ConversationId: "C1", SenderId: "U1"}
	after.CreatedAt = lastSeen.Add(time.Millisecond)
	own := model.Message{ConversationId: "C1", SenderId: "U2"}
	own.CreatedAt = lastSeen.Add(time.Second)
	messageRepo.messages = []model.Message{atExactly, after, own}

	count, err := tk.UnreadCount("C1", "U2")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected unread count 1, got %d", count)
	}
}

// 从未读过整个会话时以会话创建时间为阈值
func TestUnreadCountFallsBackToConversationCreation(t *testing.T) {
	tk, _, messageRepo, memberRepo, conversationRepo := newTestTracker()
	createdAt := time.Date(2026, 8, 28, 9, 0, 0, 0, time.Local)
	conversation := &model.Conversation{Uuid: "C1"}
	conversation.CreatedAt = createdAt
	conversationRepo.conversations["C1"] = conversation
	memberRepo.members[memberKey("C1", "U2")] = &model.ConversationMember{
		ConversationId: "C1", UserId: "U2",
	}

	before := model.Message{ConversationId: "C1", SenderId: "U1"}
	before.CreatedAt = createdAt.Add(-time.Hour)
	afterOne := model.Message{ConversationId: "C1", SenderId: "U1"}
	afterOne.CreatedAt = createdAt.Add(time.Minute)
	afterTwo := model.Message{ConversationId: "C1", SenderId: "U3"}
	afterTwo.CreatedAt = createdAt.Add(2 * time.Minute)
	messageRepo.messages = []model.Message{before, afterOne, afterTwo}

	count, err := tk.UnreadCount("C1", "U2")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected unread count 2, got %d", count)
	}
}

// 非会话成员查未读数返回无权限
func TestUnreadCountNonMemberForbidden(t *testing.T) {
	tk, _, _, _, _ := newTestTracker()
	if _, err := tk.UnreadCount("C1", "U9"); err != errorx.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// GetStatus 对不存在的回执返回 NotFound 类错误
func TestGetStatusMissingReceipt(t *testing.T) {
	tk, _, _, _, _ := newTestTracker()
	if _, err := tk.GetStatus(1, "U2"); err == nil || !errorx.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
