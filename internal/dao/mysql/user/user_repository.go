// Package user 提供用户相关数据访问层的具体实现
package user

import (
	"time"

	"lingyin_social_server/internal/dao/mysql/internal"
	"lingyin_social_server/internal/model"

	"gorm.io/gorm"
)

// userRepository UserRepository 接口的实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建 UserRepository 实例
func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

// FindByUuid 根据 UUID 查找用户
func (r *userRepository) FindByUuid(uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// FindByTelephone 根据手机号查找用户
func (r *userRepository) FindByTelephone(telephone string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.Where("telephone = ?", telephone).First(&user).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询用户 telephone=%s", telephone)
	}
	return &user, nil
}

// FindByUuids 批量根据 UUID 查找用户
func (r *userRepository) FindByUuids(uuids []string) ([]model.UserInfo, error) {
	var users []model.UserInfo
	if len(uuids) == 0 {
		return users, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&users).Error; err != nil {
		return nil, internal.WrapDBError(err, "批量查询用户")
	}
	return users, nil
}

// CreateUser 创建新用户
func (r *userRepository) CreateUser(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		return internal.WrapDBError(err, "创建用户")
	}
	return nil
}

// UpdateUserInfo 更新用户信息
func (r *userRepository) UpdateUserInfo(user *model.UserInfo) error {
	if err := r.db.Save(user).Error; err != nil {
		return internal.WrapDBErrorf(err, "更新用户 uuid=%s", user.Uuid)
	}
	return nil
}

// UpdateOnlineState 记录用户上线/离线时间
func (r *userRepository) UpdateOnlineState(uuid string, at time.Time, online bool) error {
	column := "last_offline_at"
	if online {
		column = "last_online_at"
	}
	if err := r.db.Model(&model.UserInfo{}).Where("uuid = ?", uuid).
		Update(column, at).Error; err != nil {
		return internal.WrapDBErrorf(err, "更新用户在线状态 uuid=%s", uuid)
	}
	return nil
}
