package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/plantcare/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

const minPasswordLength = 6

// UserService 负责注册与登录
type UserService struct {
	db *gorm.DB
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Register 创建普通用户，密码以 bcrypt 存储
func (s *UserService) Register(ctx context.Context, login, password string) (*db.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || len(password) < minPasswordLength {
		return nil, ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{Login: login, Password: string(hashed), Role: db.RoleUser}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate 校验登录名与密码
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).Where("login = ?", strings.TrimSpace(login)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}
