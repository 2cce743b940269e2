package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"samiti/internal/models"
	apperrors "samiti/pkg/errors"
	"samiti/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserService 用户服务 - 全局账号的注册与登录。
// 账号表是全局实体，不经过租户作用域存储。
type UserService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:  db,
		log: logger.GetLogger(),
	}
}

// Register 注册用户
func (s *UserService) Register(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validateRegisterParams(email, password, name); err != nil {
		return nil, err
	}

	// 检查邮箱是否已注册
	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("该邮箱已注册")
	}

	user := &models.User{
		Email:  email,
		Name:   name,
		Status: models.UserStatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	if err := s.db.Create(user).Error; err != nil {
		s.log.Errorf("创建用户失败: %v", err)
		return nil, err
	}
	return user, nil
}

// Authenticate 校验邮箱密码，成功返回用户并刷新最后登录时间
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("邮箱或密码错误")
		}
		return nil, err
	}

	if user.Status != models.UserStatusActive {
		return nil, fmt.Errorf("账号已被禁用")
	}
	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("邮箱或密码错误")
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login_at", now)

	return &user, nil
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	return &user, err
}

// validateRegisterParams 注册参数校验
func (s *UserService) validateRegisterParams(email, password, name string) error {
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.NewValidationError("email", "邮箱格式错误")
	}
	if len(password) < 8 {
		return apperrors.NewValidationError("password", "密码长度不能少于8位")
	}
	nameLen := utf8.RuneCountInString(name)
	if nameLen == 0 || nameLen > 100 {
		return apperrors.NewValidationError("name", "姓名长度必须在1-100个字符之间")
	}
	return nil
}
