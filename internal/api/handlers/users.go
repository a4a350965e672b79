package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/api/middleware"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
)

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Type            string `json:"type"`
	Role            string `json:"role"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Company         string `json:"company"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	NewPasswordConfirm string `json:"newPasswordConfirm"`
}

func HandleSignup(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if err := bindJSON(c, &req); err != nil {
			fail(c, err)
			return
		}

		// type wins, role is accepted for older clients
		role := req.Type
		if role == "" {
			role = req.Role
		}

		user, err := ctx.Users.Signup(c.Request.Context(), service.SignupInput{
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
			Role:            models.Role(role),
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Company:         req.Company,
		})
		if err != nil {
			fail(c, err)
			return
		}

		sendToken(ctx, c, http.StatusCreated, user)
	}
}

func HandleLogin(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := bindJSON(c, &req); err != nil {
			fail(c, err)
			return
		}

		user, err := ctx.Users.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			fail(c, err)
			return
		}

		sendToken(ctx, c, http.StatusOK, user)
	}
}

func sendToken(ctx *Context, c *gin.Context, status int, user *models.User) {
	token, _, err := ctx.Tokens.Issue(user.ID, user.PasswordChangedAt)
	if err != nil {
		fail(c, err)
		return
	}

	setAuthCookie(c, ctx.Config, token)
	c.JSON(status, Response{
		Status: "success",
		Token:  token,
		Data:   gin.H{"user": user},
	})
}

// HandleLogout clears the cookie and, when a token was presented, revokes it
// for the rest of its lifetime.
func HandleLogout(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := middleware.CurrentIdentity(c); ok && id.Claims.ID != "" && id.Claims.ExpiresAt != nil {
			ttl := time.Until(id.Claims.ExpiresAt.Time)
			if err := ctx.Revoker.Revoke(c.Request.Context(), id.Claims.ID, ttl); err != nil {
				ctx.Logger.Error("failed to revoke token",
					zap.String("user_id", id.User.ID),
					zap.Error(err),
				)
			}
		}

		clearAuthCookie(c, ctx.Config)
		respond(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

func HandleMe(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		respond(c, http.StatusOK, gin.H{"user": user})
	}
}

func HandleStats(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		stats, err := ctx.Users.Stats(c.Request.Context(), user)
		if err != nil {
			fail(c, err)
			return
		}

		respond(c, http.StatusOK, gin.H{"stats": stats})
	}
}

// HandleChangePassword re-issues the session cookie because older tokens stop
// working once the password changes.
func HandleChangePassword(ctx *Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		var req changePasswordRequest
		if err := bindJSON(c, &req); err != nil {
			fail(c, err)
			return
		}

		updated, err := ctx.Users.ChangePassword(c.Request.Context(), user, service.ChangePasswordInput{
			CurrentPassword:    req.CurrentPassword,
			NewPassword:        req.NewPassword,
			NewPasswordConfirm: req.NewPasswordConfirm,
		})
		if err != nil {
			fail(c, err)
			return
		}

		token, _, err := ctx.Tokens.Issue(updated.ID, updated.PasswordChangedAt)
		if err != nil {
			fail(c, err)
			return
		}

		setAuthCookie(c, ctx.Config, token)
		c.JSON(http.StatusOK, Response{
			Status: "success",
			Token:  token,
			Data:   gin.H{"message": "Password updated successfully"},
		})
	}
}
