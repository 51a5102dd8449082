package controllers

import (
	"net/http"
	"time"

	"social-sphere/config"
	"social-sphere/models"
	"social-sphere/services"
	"social-sphere/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type UserInfoResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// 用户注册
func Register(c *gin.Context) {
	var userInput struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&userInput); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// 检查用户名是否已存在
	var existingUser models.User
	if err := config.DB.Where("username = ?", userInput.Username).First(&existingUser).Error; err == nil {
		utils.RespondError(c, http.StatusBadRequest, "Username already exists")
		return
	}

	// 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(userInput.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	newUser := models.User{
		Username:  userInput.Username,
		Password:  string(hashedPassword),
		LastLogin: nil, // 让它默认 NULL
	}

	if err := config.DB.Create(&newUser).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := services.GenerateToken(newUser)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.RespondSuccess(c, gin.H{"token": token}, nil)
}

// 用户登录
func Login(c *gin.Context) {
	var loginInput struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginInput); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("username = ?", loginInput.Username).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginInput.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	// 更新最后登录时间
	now := time.Now()
	user.LastLogin = &now
	config.DB.Save(&user)

	token, err := services.GenerateToken(user)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	utils.RespondSuccess(c, gin.H{"token": token}, nil)
}

func GetUserInfo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	data := UserInfoResponse{
		ID:       user.ID,
		Username: user.Username,
	}
	utils.RespondSuccess(c, data, nil)
}
