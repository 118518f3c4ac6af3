package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/internal/application"
	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	"github.com/oksasatya/ppob-membership/internal/interface/middleware"
	"github.com/oksasatya/ppob-membership/pkg/helpers"
	"github.com/oksasatya/ppob-membership/pkg/response"
)

const maxImageSize = 2 << 20

type MembershipHandler struct {
	Svc     *application.MembershipService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewMembershipHandler(svc *application.MembershipService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *MembershipHandler {
	return &MembershipHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type profileResponse struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ProfileImage string `json:"profile_image"`
}

func toProfile(u *entity.User) profileResponse {
	return profileResponse{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, ProfileImage: u.ProfileImage}
}

func (h *MembershipHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	_, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Registrasi berhasil silahkan login")
}

func (h *MembershipHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	tok, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetAccess(c, tok.Token, tok.ExpiresAt)
	response.Success(c, http.StatusOK, gin.H{"token": tok.Token}, "Login Sukses")
}

func (h *MembershipHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString(middleware.CtxUserID)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "Logout berhasil")
}

func (h *MembershipHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserEmail))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(u), "Sukses")
}

func (h *MembershipHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxUserEmail), application.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(u), "Update Profile berhasil")
}

// UploadProfileImage takes multipart field "file". The content type is sniffed
// from the bytes, not taken from the client.
func (h *MembershipHandler) UploadProfileImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file is required")
		return
	}
	if fh.Size > maxImageSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "image size must not exceed 2MB")
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		writeError(c, h.Logger, fmt.Errorf("rewind upload: %w", err))
		return
	}

	u, err := h.Svc.UploadProfileImage(c.Request.Context(), c.GetString(middleware.CtxUserEmail), f, mt.String())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(u), "Update Profile Image berhasil")
}
