// Package mysql 提供 Repository 层聚合与构造
package mysql

import (
	"gorm.io/gorm"

	"lingyin_social_server/internal/dao/mysql/conversation"
	"lingyin_social_server/internal/dao/mysql/member"
	"lingyin_social_server/internal/dao/mysql/message"
	"lingyin_social_server/internal/dao/mysql/receipt"
	"lingyin_social_server/internal/dao/mysql/user"
)

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db           *gorm.DB
	User         UserRepository
	Conversation ConversationRepository
	Member       ConversationMemberRepository
	Message      MessageRepository
	Receipt      MessageReceiptRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		User:         user.NewUserRepository(db),
		Conversation: conversation.NewConversationRepository(db),
		Member:       member.NewMemberRepository(db),
		Message:      message.NewMessageRepository(db),
		Receipt:      receipt.NewReceiptRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
