// internal/service/auth_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"vocab_trainer/internal/config"
	"vocab_trainer/internal/model"
	"vocab_trainer/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- モックMailer ---
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func newTestAuthService(db *gorm.DB, mailer Mailer) AuthService {
	cfg := &config.Config{
		App: config.AppConfig{Name: "VocabTrainer", FrontendURL: "http://localhost:3000", ReviewLimit: 20},
		JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: time.Hour},
	}
	return NewAuthService(db, repository.NewGormUserRepository(), repository.NewGormTokenRepository(), mailer, cfg)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestAuthService(db, &LogMailer{})

	t.Run("正常系: ユーザーが作成されパスワードはハッシュ化される", func(t *testing.T) {
		user, err := svc.Register(ctx, &model.RegisterRequest{
			Name:     "alice",
			Email:    "alice@example.com",
			Password: "password123",
		})
		require.NoError(t, err)

		assert.Equal(t, "alice", user.Name)
		assert.True(t, user.IsActive)
		assert.NotEqual(t, "password123", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	})

	t.Run("異常系: メールアドレスの重複は409", func(t *testing.T) {
		_, err := svc.Register(ctx, &model.RegisterRequest{
			Name:     "alice2",
			Email:    "alice@example.com",
			Password: "password456",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrConflict)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestAuthService(db, &LogMailer{})

	registered, err := svc.Register(ctx, &model.RegisterRequest{
		Name:     "bob",
		Email:    "bob@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	t.Run("正常系: 正しい資格情報でJWTが返る", func(t *testing.T) {
		resp, err := svc.Login(ctx, &model.LoginRequest{Email: "bob@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.AccessToken)

		// subjectに自分のユーザーIDが入っていること
		token, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		sub, err := token.Claims.GetSubject()
		require.NoError(t, err)
		assert.Equal(t, registered.UserID.String(), sub)
	})

	t.Run("異常系: パスワード不一致", func(t *testing.T) {
		_, err := svc.Login(ctx, &model.LoginRequest{Email: "bob@example.com", Password: "wrong"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("異常系: 未登録のメールアドレス", func(t *testing.T) {
		_, err := svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	mailer := new(mockMailer)
	svc := newTestAuthService(db, mailer)

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Name:     "carol",
		Email:    "carol@example.com",
		Password: "old-password",
	})
	require.NoError(t, err)

	// 送信されるメール本文からトークンを拾わず、DBから直接取得して検証する
	mailer.On("Send", mock.Anything, "carol@example.com", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, svc.RequestPasswordReset(ctx, "carol@example.com"))
	mailer.AssertExpectations(t)

	var prt model.PasswordResetToken
	require.NoError(t, db.Where("user_id = ?", user.UserID).First(&prt).Error)
	assert.True(t, prt.ExpiresAt.After(time.Now()))

	t.Run("正常系: トークンでパスワードを更新できる", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(ctx, prt.Token, "new-password"))

		resp, err := svc.Login(ctx, &model.LoginRequest{Email: "carol@example.com", Password: "new-password"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("異常系: 使用済みトークンは再利用できない", func(t *testing.T) {
		err := svc.ResetPassword(ctx, prt.Token, "another-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestAuthService_RequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	mailer := new(mockMailer)
	svc := newTestAuthService(db, mailer)

	// メールアドレスの存在を漏らさないため、未登録でもエラーにならずメールも送らない
	require.NoError(t, svc.RequestPasswordReset(ctx, "ghost@example.com"))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestAuthService(db, &LogMailer{})

	user := createTestUser(t, db)
	expired := &model.PasswordResetToken{
		Token:     "expired-token",
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(expired).Error)

	err := svc.ResetPassword(ctx, "expired-token", "new-password")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	// 期限切れトークンは掃除される
	var count int64
	db.Model(&model.PasswordResetToken{}).Where("token = ?", "expired-token").Count(&count)
	assert.Equal(t, int64(0), count)
}
