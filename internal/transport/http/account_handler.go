package http

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/hubmarket-accounts/internal/media"
	"github.com/njprem/hubmarket-accounts/internal/service"
	"github.com/njprem/hubmarket-accounts/internal/util"
)

const photoField = "photo"

type AccountHandler struct {
	accounts *service.AccountService
	logger   *zap.Logger
}

func RegisterAccounts(e *echo.Echo, accounts *service.AccountService, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &AccountHandler{accounts: accounts, logger: logger}

	e.POST("/signup", h.signup)
	e.POST("/login", h.login)
	e.PUT("/edit-user", h.editUser)
	e.POST("/forgot-password", h.forgotPassword)
	e.POST("/reset-password", h.resetPassword)
	e.PUT("/soft-delete", h.softDelete)
	e.DELETE("/hard-delete", h.hardDelete)
	e.GET("/users/:id", h.getUser)
}

// signup handles POST /signup
func (h *AccountHandler) signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	photo, closer, err := formPhoto(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid photo upload"))
	}
	if closer != nil {
		defer closer.Close()
	}

	account, err := h.accounts.Signup(c.Request().Context(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
		Email:     req.Email,
		Address:   req.Address,
		MobileNo:  req.MobileNo.String(),
		Gender:    req.Gender,
		Password:  req.Password,
		Photo:     photo,
	})
	if err != nil {
		return h.fail(c, statusFor(err), err)
	}
	return c.JSON(http.StatusCreated, AccountEnvelope{
		Message: "Signup successful!",
		User:    toAccountResponse(account),
	})
}

// login handles POST /login
func (h *AccountHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	account, err := h.accounts.Login(c.Request().Context(), service.LoginInput{
		Email:    req.Email,
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		status := statusFor(err)
		if service.KindOf(err) == service.KindNotFound {
			status = http.StatusBadRequest
		}
		return h.fail(c, status, err)
	}
	return c.JSON(http.StatusOK, AccountEnvelope{
		Message: "Login successful!",
		User:    toAccountResponse(account),
	})
}

// editUser handles PUT /edit-user
func (h *AccountHandler) editUser(c echo.Context) error {
	var req EditUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	photo, closer, err := formPhoto(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid photo upload"))
	}
	if closer != nil {
		defer closer.Close()
	}

	current := req.CurrentPassword
	if current == "" {
		current = req.Password
	}
	account, err := h.accounts.EditProfile(c.Request().Context(), service.EditProfileInput{
		Email:       req.Email,
		Password:    current,
		NewEmail:    optionalString(req.NewEmail),
		FirstName:   optionalString(req.FirstName),
		LastName:    optionalString(req.LastName),
		UserName:    optionalString(req.UserName),
		Address:     optionalString(req.Address),
		MobileNo:    optionalString(req.MobileNo.String()),
		Gender:      optionalString(req.Gender),
		NewPassword: optionalString(req.NewPassword),
		Photo:       photo,
	})
	if err != nil {
		return h.fail(c, statusFor(err), err)
	}
	return c.JSON(http.StatusOK, AccountEnvelope{
		Message: "User details updated successfully",
		User:    toAccountResponse(account),
	})
}

// forgotPassword handles POST /forgot-password
func (h *AccountHandler) forgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if err := h.accounts.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		status := statusFor(err)
		if service.KindOf(err) == service.KindNotFound {
			status = http.StatusBadRequest
		}
		return h.fail(c, status, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "OTP sent to your email"})
}

// resetPassword handles POST /reset-password
func (h *AccountHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	err := h.accounts.ResetPassword(c.Request().Context(), service.ResetPasswordInput{
		Email:       req.Email,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		status := statusFor(err)
		if service.KindOf(err) == service.KindAuth {
			status = http.StatusBadRequest
		}
		return h.fail(c, status, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Password reset successful"})
}

// softDelete handles PUT /soft-delete
func (h *AccountHandler) softDelete(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if err := h.accounts.SoftDelete(c.Request().Context(), req.Email); err != nil {
		return h.fail(c, statusFor(err), err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User soft deleted successfully"})
}

// hardDelete handles DELETE /hard-delete
func (h *AccountHandler) hardDelete(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if err := h.accounts.HardDelete(c.Request().Context(), req.Email); err != nil {
		return h.fail(c, statusFor(err), err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User permanently deleted"})
}

// getUser handles GET /users/{id}
func (h *AccountHandler) getUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid user id"))
	}
	account, err := h.accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, statusFor(err), err)
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) fail(c echo.Context, status int, err error) error {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("kind", service.KindOf(err).String()),
			zap.Error(err),
		)
	}
	return c.JSON(status, util.Failure(service.KindOf(err).String(), service.PublicMessage(err)))
}

func statusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// formPhoto returns the optional "photo" part of a multipart request.
func formPhoto(c echo.Context) (*media.Upload, io.Closer, error) {
	ct := strings.ToLower(c.Request().Header.Get(echo.HeaderContentType))
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		return nil, nil, nil
	}
	header, err := c.FormFile(photoField)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &media.Upload{
		Reader:      file,
		Size:        header.Size,
		FileName:    header.Filename,
		ContentType: partContentType(header),
	}, file, nil
}

func partContentType(header *multipart.FileHeader) string {
	return strings.TrimSpace(header.Header.Get(echo.HeaderContentType))
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
