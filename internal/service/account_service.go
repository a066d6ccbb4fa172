package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/media"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// OTPStore keeps at most one reset code per email.
type OTPStore interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) (bool, error)
	Consume(ctx context.Context, email string) error
}

type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type PhotoSaver interface {
	SavePhoto(ctx context.Context, upload media.Upload) (string, error)
}

type AccountServiceConfig struct {
	AppName string
	OTPTTL  time.Duration
	// ResetIncludesDeleted lets forgot/reset password reach soft-deleted accounts.
	ResetIncludesDeleted bool
	AsyncWelcome         bool
	NotifyTimeout        time.Duration
	// Dispatch runs background notifications. Defaults to a new goroutine.
	Dispatch func(task func())
}

type AccountService struct {
	accounts ports.AccountRepository
	hasher   PasswordHasher
	otps     OTPStore
	notifier Notifier
	photos   PhotoSaver
	logger   *zap.Logger

	appName              string
	otpTTL               time.Duration
	resetIncludesDeleted bool
	asyncWelcome         bool
	notifyTimeout        time.Duration
	dispatch             func(task func())
	resets               *keyedLock
}

const (
	// bcrypt ignores input past 72 bytes and GenerateFromPassword rejects it.
	maxPasswordBytes = 72

	defaultAppName       = "HubMarket"
	defaultNotifyTimeout = 30 * time.Second
)

func NewAccountService(
	accounts ports.AccountRepository,
	hasher PasswordHasher,
	otps OTPStore,
	notifier Notifier,
	photos PhotoSaver,
	logger *zap.Logger,
	cfg AccountServiceConfig,
) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	appName := strings.TrimSpace(cfg.AppName)
	if appName == "" {
		appName = defaultAppName
	}
	ttl := cfg.OTPTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeout := cfg.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	dispatch := cfg.Dispatch
	if dispatch == nil {
		dispatch = func(task func()) { go task() }
	}
	return &AccountService{
		accounts:             accounts,
		hasher:               hasher,
		otps:                 otps,
		notifier:             notifier,
		photos:               photos,
		logger:               logger,
		appName:              appName,
		otpTTL:               ttl,
		resetIncludesDeleted: cfg.ResetIncludesDeleted,
		asyncWelcome:         cfg.AsyncWelcome,
		notifyTimeout:        timeout,
		dispatch:             dispatch,
		resets:               newKeyedLock(),
	}
}

type SignupInput struct {
	FirstName string
	LastName  string
	UserName  string
	Email     string
	Address   string
	MobileNo  string
	Gender    string
	Password  string
	Photo     *media.Upload
}

type LoginInput struct {
	Email    string
	UserName string
	Password string
}

// EditProfileInput identifies the account by Email and Password. Nil or blank
// optional fields are left unchanged.
type EditProfileInput struct {
	Email       string
	Password    string
	NewEmail    *string
	FirstName   *string
	LastName    *string
	UserName    *string
	Address     *string
	MobileNo    *string
	Gender      *string
	NewPassword *string
	Photo       *media.Upload
}

type ResetPasswordInput struct {
	Email       string
	OTP         string
	NewPassword string
}

func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*domain.Account, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = NormalizeEmail(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.Gender = strings.TrimSpace(in.Gender)

	if err := requireFields(map[string]string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"user_name":  in.UserName,
		"email":      in.Email,
		"address":    in.Address,
		"mobile_no":  in.MobileNo,
		"gender":     in.Gender,
		"password":   in.Password,
	}); err != nil {
		return nil, err
	}
	mobile, err := parseMobile(in.MobileNo)
	if err != nil {
		return nil, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return nil, err
	}

	_, err = s.accounts.FindByEmailOrUsername(ctx, in.Email, in.UserName, false)
	switch {
	case err == nil:
		return nil, ErrDuplicateUser
	case !errors.Is(err, ports.ErrAccountNotFound):
		return nil, s.persistence("signup lookup", err)
	}
	// Checked before the photo is stored so a rejected signup leaves no object behind.
	if err := s.checkFree(ctx, domain.UniqueMobileNo, mobile, uuid.Nil, ErrConflictMobile); err != nil {
		return nil, err
	}

	var photoRef *string
	if in.Photo != nil {
		ref, err := s.savePhoto(ctx, *in.Photo)
		if err != nil {
			return nil, err
		}
		photoRef = &ref
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.persistence("hash password", err)
	}

	account, err := s.accounts.Insert(ctx, &domain.Account{
		ID:           uuid.New(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		UserName:     in.UserName,
		Email:        in.Email,
		Address:      in.Address,
		MobileNo:     mobile,
		Gender:       in.Gender,
		PasswordHash: digest,
		PhotoRef:     photoRef,
	})
	if err != nil {
		var dup *ports.DuplicateKeyError
		if errors.As(err, &dup) {
			if dup.Field == domain.UniqueMobileNo {
				return nil, ErrConflictMobile
			}
			return nil, ErrDuplicateUser
		}
		return nil, s.persistence("insert account", err)
	}

	subject, body := welcomeMessage(s.appName, account.FirstName)
	if s.asyncWelcome {
		s.notifyAsync(account.Email, subject, body)
	} else if err := s.notifier.Send(ctx, account.Email, subject, body); err != nil {
		s.logger.Warn("welcome email failed", zap.String("email", account.Email), zap.Error(err))
	}
	return account, nil
}

// Login matches either email or user_name, whichever the caller supplied.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*domain.Account, error) {
	email := NormalizeEmail(in.Email)
	userName := strings.TrimSpace(in.UserName)
	if (email == "" && userName == "") || in.Password == "" {
		return nil, ErrMissingFields
	}
	account, err := s.accounts.FindByEmailOrUsername(ctx, email, userName, false)
	if err != nil {
		return nil, s.lookupError("login lookup", err)
	}
	if !s.hasher.Verify(in.Password, account.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return account, nil
}

func (s *AccountService) EditProfile(ctx context.Context, in EditProfileInput) (*domain.Account, error) {
	email := NormalizeEmail(in.Email)
	if err := requireFields(map[string]string{"email": email, "password": in.Password}); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByEmail(ctx, email, false)
	if err != nil {
		return nil, s.lookupError("edit lookup", err)
	}
	if !s.hasher.Verify(in.Password, account.PasswordHash) {
		return nil, ErrBadCredentials
	}
	if in.NewPassword != nil {
		if err := checkPasswordLength(*in.NewPassword); err != nil {
			return nil, err
		}
	}

	var update domain.AccountUpdate
	update.FirstName = trimmedOrNil(in.FirstName)
	update.LastName = trimmedOrNil(in.LastName)
	update.Address = trimmedOrNil(in.Address)
	update.Gender = trimmedOrNil(in.Gender)

	if v := trimmedOrNil(in.UserName); v != nil && *v != account.UserName {
		if err := s.checkFree(ctx, domain.UniqueUserName, *v, account.ID, ErrConflictUsername); err != nil {
			return nil, err
		}
		update.UserName = v
	}
	if in.NewEmail != nil {
		if v := NormalizeEmail(*in.NewEmail); v != "" && v != account.Email {
			if err := s.checkFree(ctx, domain.UniqueEmail, v, account.ID, ErrConflictEmail); err != nil {
				return nil, err
			}
			update.Email = &v
		}
	}
	if v := trimmedOrNil(in.MobileNo); v != nil {
		mobile, err := parseMobile(*v)
		if err != nil {
			return nil, err
		}
		if mobile != account.MobileNo {
			if err := s.checkFree(ctx, domain.UniqueMobileNo, mobile, account.ID, ErrConflictMobile); err != nil {
				return nil, err
			}
			update.MobileNo = &mobile
		}
	}
	if in.NewPassword != nil && *in.NewPassword != "" {
		digest, err := s.hasher.Hash(*in.NewPassword)
		if err != nil {
			return nil, s.persistence("hash password", err)
		}
		update.PasswordHash = &digest
	}
	if in.Photo != nil {
		ref, err := s.savePhoto(ctx, *in.Photo)
		if err != nil {
			return nil, err
		}
		update.PhotoRef = &ref
	}

	if update.IsEmpty() {
		return account, nil
	}
	updated, err := s.accounts.UpdateFields(ctx, account.ID, update)
	if err != nil {
		var dup *ports.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, conflictFor(dup.Field)
		}
		return nil, s.lookupError("update account", err)
	}
	return updated, nil
}

// ForgotPassword issues a reset code and mails it. Delivery failure is
// reported because the code is otherwise unreachable.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingFields)
	}
	account, err := s.accounts.FindByEmail(ctx, email, s.resetIncludesDeleted)
	if err != nil {
		return s.lookupError("forgot-password lookup", err)
	}
	code, err := s.otps.Issue(ctx, account.Email)
	if err != nil {
		return s.persistence("issue otp", err)
	}
	subject, body := resetCodeMessage(s.appName, code, s.otpTTL)
	if err := s.notifier.Send(ctx, account.Email, subject, body); err != nil {
		s.logger.Error("reset code email failed", zap.String("email", account.Email), zap.Error(err))
		return ErrNotification
	}
	return nil
}

// ResetPassword accepts a code once. The code is consumed only after the new
// password is stored; resets for one email run one at a time so a code cannot
// be redeemed twice by concurrent requests.
func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	email := NormalizeEmail(in.Email)
	code := strings.TrimSpace(in.OTP)
	if err := requireFields(map[string]string{"email": email, "otp": code, "newpassword": in.NewPassword}); err != nil {
		return err
	}
	if err := checkPasswordLength(in.NewPassword); err != nil {
		return err
	}
	unlock := s.resets.Lock(email)
	defer unlock()

	ok, err := s.otps.Verify(ctx, email, code)
	if err != nil {
		return s.persistence("verify otp", err)
	}
	if !ok {
		return ErrInvalidOrExpiredOTP
	}
	account, err := s.accounts.FindByEmail(ctx, email, s.resetIncludesDeleted)
	if err != nil {
		return s.lookupError("reset lookup", err)
	}
	digest, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return s.persistence("hash password", err)
	}
	if _, err := s.accounts.UpdateFields(ctx, account.ID, domain.AccountUpdate{PasswordHash: &digest}); err != nil {
		return s.lookupError("store password", err)
	}
	if err := s.otps.Consume(ctx, email); err != nil {
		return s.persistence("consume otp", err)
	}

	subject, body := passwordChangedMessage(s.appName)
	s.notifyAsync(account.Email, subject, body)
	return nil
}

func (s *AccountService) SoftDelete(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingFields)
	}
	account, err := s.accounts.FindByEmail(ctx, email, true)
	if err != nil {
		return s.lookupError("soft-delete lookup", err)
	}
	if account.IsDeleted {
		return ErrAlreadyDeleted
	}
	deleted := true
	if _, err := s.accounts.UpdateFields(ctx, account.ID, domain.AccountUpdate{IsDeleted: &deleted}); err != nil {
		return s.lookupError("soft delete", err)
	}
	return nil
}

// HardDelete removes every record stored under email, including soft-deleted ones.
func (s *AccountService) HardDelete(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingFields)
	}
	if err := s.accounts.DeleteByEmail(ctx, email); err != nil {
		return s.lookupError("hard delete", err)
	}
	return nil
}

// GetByID hides soft-deleted accounts.
func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError("get account", err)
	}
	if account.IsDeleted {
		return nil, ErrNotFound
	}
	return account, nil
}

func (s *AccountService) savePhoto(ctx context.Context, upload media.Upload) (string, error) {
	if s.photos == nil {
		return "", ErrInvalidImage
	}
	ref, err := s.photos.SavePhoto(ctx, upload)
	if err != nil {
		mapped := mapPhotoError(err)
		if mapped == ErrPersistence {
			s.logger.Error("store photo", zap.Error(err))
		}
		return "", mapped
	}
	return ref, nil
}

func (s *AccountService) checkFree(ctx context.Context, field domain.UniqueField, value any, self uuid.UUID, conflict error) error {
	taken, err := s.accounts.ExistsOther(ctx, field, value, self)
	if err != nil {
		return s.persistence("uniqueness check", err)
	}
	if taken {
		return conflict
	}
	return nil
}

func (s *AccountService) notifyAsync(to, subject, body string) {
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Send(ctx, to, subject, body); err != nil {
			s.logger.Warn("notification failed", zap.String("email", to), zap.String("subject", subject), zap.Error(err))
		}
	})
}

func (s *AccountService) lookupError(op string, err error) error {
	if errors.Is(err, ports.ErrAccountNotFound) {
		return ErrNotFound
	}
	return s.persistence(op, err)
}

func (s *AccountService) persistence(op string, err error) error {
	s.logger.Error(op, zap.Error(err))
	return ErrPersistence
}

func conflictFor(field domain.UniqueField) error {
	switch field {
	case domain.UniqueEmail:
		return ErrConflictEmail
	case domain.UniqueMobileNo:
		return ErrConflictMobile
	case domain.UniqueUserName:
		return ErrConflictUsername
	default:
		return ErrDuplicateUser
	}
}

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
}

func checkPasswordLength(password string) error {
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func parseMobile(value string) (int64, error) {
	mobile, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || mobile < 0 {
		return 0, ErrInvalidMobile
	}
	return mobile, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
