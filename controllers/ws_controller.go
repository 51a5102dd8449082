package controllers

import (
	"github.com/gin-gonic/gin"
)

func WSController(ctx *gin.Context) {
	wsManager.HandleConnection(ctx)
}
