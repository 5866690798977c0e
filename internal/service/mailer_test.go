// internal/service/mailer_test.go
package service

import (
	"strings"
	"testing"

	"vocab_trainer/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmtpMailer_BuildMessage(t *testing.T) {
	m := &SmtpMailer{cfg: &config.SMTPConfig{
		Host: "localhost",
		Port: 1025,
		From: "noreply@example.com",
	}}

	msg := m.buildMessage("user@example.com", "パスワード再設定のご案内", "本文です。")

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found, "ヘッダと本文が空行で区切られていること")

	assert.Contains(t, headers, "From: noreply@example.com\r\n")
	assert.Contains(t, headers, "To: user@example.com\r\n")
	assert.Contains(t, headers, "Content-Type: text/plain; charset=UTF-8")
	// 日本語の件名はQエンコードされること
	assert.Contains(t, headers, "Subject: =?UTF-8?q?")
	assert.NotContains(t, headers, "Subject: パスワード")

	assert.Equal(t, "本文です。\r\n", body)
}

func TestNewMailer_Factory(t *testing.T) {
	t.Run("正常系: log指定", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Mailer.Type = "log"
		m, err := NewMailer(cfg)
		require.NoError(t, err)
		assert.IsType(t, &LogMailer{}, m)
	})

	t.Run("正常系: smtp指定", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Mailer.Type = "smtp"
		m, err := NewMailer(cfg)
		require.NoError(t, err)
		assert.IsType(t, &SmtpMailer{}, m)
	})

	t.Run("正常系: 不明な指定はLogMailerにフォールバック", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Mailer.Type = "carrier-pigeon"
		m, err := NewMailer(cfg)
		require.NoError(t, err)
		assert.IsType(t, &LogMailer{}, m)
	})
}

func TestSESCredentialsOption(t *testing.T) {
	t.Run("異常系: static_credentialsでキー未設定はエラー", func(t *testing.T) {
		_, err := sesCredentialsOption(&config.SESConfig{AuthType: "static_credentials"})
		assert.Error(t, err)
	})

	t.Run("正常系: static_credentialsでキーが揃っていればオプションが返る", func(t *testing.T) {
		opt, err := sesCredentialsOption(&config.SESConfig{
			AuthType:        "static_credentials",
			AccessKeyID:     "AKIAEXAMPLE",
			SecretAccessKey: "secret",
		})
		require.NoError(t, err)
		assert.NotNil(t, opt)
	})

	t.Run("正常系: iam_roleはSDKの自動解決に任せる", func(t *testing.T) {
		opt, err := sesCredentialsOption(&config.SESConfig{AuthType: "iam_role"})
		require.NoError(t, err)
		assert.Nil(t, opt)
	})
}
