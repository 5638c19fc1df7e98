package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/example/velora/internal/models"
	"github.com/example/velora/internal/money"
)

// TelegramService pings the back-office chat about storefront activity.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// NotifyNewOrder announces a freshly placed order.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			item.Name,
			item.Quantity,
			money.Format(item.UnitPrice, order.Currency),
			money.Format(item.LineTotal, order.Currency),
		))
	}

	paymentMethodText := "Card"
	if order.PaymentMethod == "cash_on_delivery" {
		paymentMethodText = "Cash on delivery"
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>📋 Order:</b> %s
<b>👤 Customer:</b> %s %s
<b>📍 Destination:</b> %s, %s
<b>📦 Items:</b>
%s
<b>💰 Total:</b> %s
<b>💳 Payment:</b> %s`,
		order.OrderID,
		order.Customer.FirstName,
		order.Customer.LastName,
		order.Customer.City,
		order.Customer.Country,
		itemsList.String(),
		money.Format(order.Total, order.Currency),
		paymentMethodText,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}

// NotifyPaymentReceived announces a settled payment.
func (s *TelegramService) NotifyPaymentReceived(ctx context.Context, order *models.Order) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>✅ PAYMENT RECEIVED</b>
<b>📋 Order:</b> %s
<b>💰 Amount:</b> %s
<b>💳 Method:</b> %s`,
		order.OrderID,
		money.Format(order.Total, order.Currency),
		order.PaymentMethod,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}
