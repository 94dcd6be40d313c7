package middlewares

import (
	"errors"
	"galabook/src/types"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// AdminAuth accepts HS256 bearer tokens signed with secret whose role claim
// is admin.
func AdminAuth(secret string) gin.HandlerFunc {
	jwtKey := []byte(secret)
	return func(ctx *gin.Context) {
		if len(jwtKey) == 0 {
			log.Println("JWT_SECRET is not set, refusing admin request")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		bearerToken := ctx.Request.Header.Get("Authorization")
		reqToken, ok := strings.CutPrefix(bearerToken, "Bearer ")
		if !ok || reqToken == "" {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims := &types.Claims{}
		tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtKey, nil
		})
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !tkn.Valid {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if claims.Role != types.ROLE_ADMIN {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}
		ctx.Set("sub", claims.Subject)
		ctx.Set("username", claims.Username)
		ctx.Set("role", claims.Role)
	}
}
