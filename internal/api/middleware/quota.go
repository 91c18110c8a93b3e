package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/insta_check_server/internal/pkg/response"
	"github.com/qs3c/insta_check_server/internal/service"
)

// QuotaCheck 免费额度检查中间件，额度用完引导支付
func QuotaCheck(quotaService *service.QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		hasQuota, err := quotaService.CheckQuota(userID)
		if err != nil {
			response.ServerError(c, "额度检查失败")
			c.Abort()
			return
		}

		if !hasQuota {
			response.PaymentRequiredError(c, "免费分析次数已用完，请购买套餐")
			c.Abort()
			return
		}

		c.Next()
	}
}
