// Package dao 实现数据访问层
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/block-note-service/internal/domain"
	"github.com/haierkeys/block-note-service/internal/model"
	"github.com/haierkeys/block-note-service/pkg/timex"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository 实现 domain.UserRepository 接口
type userRepository struct {
	dao *Dao
}

// NewUserRepository 创建 UserRepository 实例
func NewUserRepository(dao *Dao) domain.UserRepository {
	return &userRepository{dao: dao}
}

// user 获取用户表会话
func (r *userRepository) user(ctx context.Context) (*gorm.DB, error) {
	return r.dao.UseWithOnceFunc(ctx, func(g *gorm.DB) error {
		return model.AutoMigrate(g, "User")
	}, "user#user")
}

// toDomain 将数据库模型转换为领域模型
func (r *userRepository) toDomain(m *model.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		UID:       m.UID,
		Username:  m.Username,
		Password:  m.Password,
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *userRepository) toModel(user *domain.User) *model.User {
	if user == nil {
		return nil
	}
	return &model.User{
		UID:       user.UID,
		Username:  user.Username,
		Password:  user.Password,
		CreatedAt: timex.Time(user.CreatedAt),
		UpdatedAt: timex.Time(user.UpdatedAt),
	}
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	db, err := r.user(ctx)
	if err != nil {
		return nil, err
	}
	var m model.User
	if err := db.Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(err, "userRepository.first")
	}
	return r.toDomain(&m), nil
}

// GetByUID 根据UID获取用户
func (r *userRepository) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	return r.first(ctx, "uid = ?", uid)
}

// GetByUsername 根据用户名获取用户
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	db, err := r.user(ctx)
	if err != nil {
		return nil, err
	}
	m := r.toModel(user)
	m.UID = 0
	m.CreatedAt = timex.Now()
	m.UpdatedAt = m.CreatedAt

	err = r.dao.ExecuteWrite(ctx, 0, func() error {
		var n int64
		if err := db.Model(&model.User{}).Where("username = ?", m.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrUserExists
		}
		return db.Create(m).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) || isDuplicateKey(err) {
			return nil, domain.ErrUserExists
		}
		return nil, pkgerrors.Wrap(err, "userRepository.Create")
	}
	return r.toDomain(m), nil
}

// Count 用户总数
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	db, err := r.user(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, pkgerrors.Wrap(err, "userRepository.Count")
	}
	return n, nil
}

// GetAllUIDs 获取所有用户UID
func (r *userRepository) GetAllUIDs(ctx context.Context) ([]int64, error) {
	db, err := r.user(ctx)
	if err != nil {
		return nil, err
	}
	var uids []int64
	if err := db.Model(&model.User{}).Order("uid").Pluck("uid", &uids).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "userRepository.GetAllUIDs")
	}
	return uids, nil
}
