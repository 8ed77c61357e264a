package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"coco-admissions-platform/internal/auth"
	"coco-admissions-platform/middleware"
	"coco-admissions-platform/utils"
)

// SetupAuthRoutes registers token rotation and revocation. Account
// provisioning lives in the upstream identity service; this API only
// maintains the token pairs it validates.
func SetupAuthRoutes(router *gin.Engine, rdb *redis.Client) {
	group := router.Group("/api/auth")

	group.POST("/refresh", func(c *gin.Context) {
		var body struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondWithBadRequest(c, "refresh_token is required", nil)
			return
		}

		claims, err := auth.ValidateRefreshToken(body.RefreshToken, rdb)
		if err != nil {
			utils.RespondWithUnauthorized(c, "invalid refresh token")
			return
		}

		// Rotate: the presented refresh token is single-use.
		if err := auth.RevokeToken(claims.ID, true, rdb); err != nil {
			utils.RespondWithInternalError(c, "token rotation failed", nil)
			return
		}

		pair, err := auth.IssueTokenPair(claims.UserID, claims.Role, rdb)
		if err != nil {
			utils.RespondWithInternalError(c, "token issuance failed", nil)
			return
		}
		c.JSON(http.StatusOK, pair)
	})

	group.POST("/logout", middleware.RequireAuth(rdb), func(c *gin.Context) {
		claims, ok := c.MustGet("claims").(*auth.Claims)
		if !ok {
			utils.RespondWithUnauthorized(c, "missing token claims")
			return
		}
		if err := auth.RevokeToken(claims.ID, false, rdb); err != nil {
			utils.RespondWithInternalError(c, "logout failed", nil)
			return
		}

		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&body); err == nil && body.RefreshToken != "" {
			if refreshClaims, err := auth.ValidateRefreshToken(body.RefreshToken, rdb); err == nil {
				auth.RevokeToken(refreshClaims.ID, true, rdb)
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
	})
}
