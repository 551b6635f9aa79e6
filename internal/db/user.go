package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GuestUserID 是访客会话使用的哨兵用户 ID，访客的植物也按此 ID 落库。
const GuestUserID int64 = -1

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 定义了用户模型
type User struct {
	gorm.Model
	Login    string `gorm:"size:100;unique;not null"`
	Password string `gorm:"not null"`
	Role     string `gorm:"size:20;not null;default:user"`
}

// EnsureUser 存在性检查：若提供的登录名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的管理员。
func EnsureUser(gdb *gorm.DB, login, password string) error {
	trimmedLogin := strings.TrimSpace(login)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedLogin == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := gdb.Where("login = ?", trimmedLogin).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{Login: trimmedLogin, Password: string(hashed), Role: RoleAdmin}).Error
	}

	return nil
}
