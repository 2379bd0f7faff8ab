package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zone-alerts-vms/be/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrTelegramDisabled = errors.New("telegram bot token is not configured")

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// TelegramClient talks to the Bot API over plain HTTPS.
type TelegramClient struct {
	httpClient *resty.Client
	enabled    bool
	logger     *zap.Logger
}

func NewTelegramClient(cfg config.TelegramConfig, logger *zap.Logger) *TelegramClient {
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	client := resty.New().
		SetBaseURL(base+"/bot"+cfg.BotToken).
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &TelegramClient{
		httpClient: client,
		enabled:    cfg.BotToken != "",
		logger:     logger,
	}
}

func (c *TelegramClient) Enabled() bool {
	return c.enabled
}

func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string) error {
	if !c.enabled {
		return ErrTelegramDisabled
	}

	var result telegramResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"chat_id": chatID, "text": text}).
		SetResult(&result).
		SetError(&result).
		Post("/sendMessage")
	return c.check("sendMessage", resp, err, result)
}

func (c *TelegramClient) SendVideo(ctx context.Context, chatID, videoPath string) error {
	if !c.enabled {
		return ErrTelegramDisabled
	}

	var result telegramResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{"chat_id": chatID}).
		SetFile("video", videoPath).
		SetResult(&result).
		SetError(&result).
		Post("/sendVideo")
	return c.check("sendVideo", resp, err, result)
}

func (c *TelegramClient) check(method string, resp *resty.Response, err error, result telegramResponse) error {
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if resp.IsError() || !result.OK {
		c.logger.Warn("Telegram API returned error",
			zap.String("method", method),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("description", result.Description),
		)
		return fmt.Errorf("telegram %s: status %d: %s", method, resp.StatusCode(), result.Description)
	}
	return nil
}
