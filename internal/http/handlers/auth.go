package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/socialnomad/nomadblog/internal/config"
	"github.com/socialnomad/nomadblog/internal/domain/user"
	"github.com/socialnomad/nomadblog/internal/http/middlewares"
	"github.com/socialnomad/nomadblog/internal/repo"
	"github.com/socialnomad/nomadblog/internal/security"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error)
}

type TokenIssuer interface {
	Generate(userID, username, role string) (string, error)
}

type AuthHandler struct {
	users  UserReader
	writer UserWriter
	tokens TokenIssuer
}

func NewAuthHandler(users UserReader, writer UserWriter, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users:  users,
		writer: writer,
		tokens: tokens,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Role == "" {
		req.Role = user.RoleWriter
	}

	if !user.ValidRole(req.Role) {
		RespondBadRequest(ctx, "Invalid role", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not register user")
		return
	}

	_, err = h.writer.Create(cctx, req.Username, req.Email, hash, req.Role)

	if err != nil {
		if errors.Is(err, repo.ErrEmailAlreadyUsed) {
			RespondBadRequest(ctx, "Email already exists", nil)
			return
		}

		RespondInternal(ctx, "Could not register user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// A missing account and a wrong password both yield the same response,
	// so the endpoint cannot be used to enumerate emails.
	found, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	token, err := h.tokens.Generate(found.ID, found.Username, found.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":    token,
		"username": found.Username,
	})
}

// Profile echoes the authenticated principal straight from the token
// claims; no store read happens here.
func (h *AuthHandler) Profile(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondForbidden(ctx, "Permission denied")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user_id":  p.UserID,
		"username": p.Username,
		"role":     p.Role,
	})
}
