package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/utils"
)

// SessionMiddleware reads the JWT from the "token" header or an
// "Authorization: Bearer" header and puts its claims on the request context.
// Requests without a token pass through unauthenticated.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(c.Request.Header.Get("Authorization"), "Bearer "))
		}
		if token == "" {
			c.Next()
			return
		}

		validate, err := utils.JwtValidate(token)
		if err != nil || !validate.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok || claims.OrganizationId == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetOrganizationIdInContext(ctx, claims.OrganizationId)
		ctx = utils.SetUserIdInContext(ctx, claims.UserId)
		ctx = utils.SetUserNameInContext(ctx, claims.Name)
		ctx = utils.SetIsAdminInContext(ctx, claims.Role == utils.RoleAdmin)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireSession rejects requests that carry no organization.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if orgId, ok := utils.GetOrganizationIdFromContext(c.Request.Context()); !ok || orgId == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, ok := utils.GetIsAdminFromContext(c.Request.Context()); !ok || !isAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
