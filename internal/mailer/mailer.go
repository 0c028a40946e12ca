package mailer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"go-airline-booking/internal/model"
	"go-airline-booking/pkg/logger"
)

// Mailer 訂位確認信寄送介面
type Mailer interface {
	SendBookingConfirmation(event *model.BookingConfirmedEvent) error
}

// SMTPMailer 透過 SMTP 寄送確認信。
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendBookingConfirmation(event *model.BookingConfirmedEvent) error {
	if event.Email == "" {
		// 旅客未留 email，靜默略過
		return nil
	}

	var body strings.Builder
	body.WriteString("Dear Customer,\n\n")
	body.WriteString("Your booking has been confirmed successfully!\n\n")
	body.WriteString("Booking Details:\n")
	fmt.Fprintf(&body, "PNR: %s\n", event.PNR)
	fmt.Fprintf(&body, "Seats: %s\n", strings.Join(event.SeatNumbers, ", "))
	fmt.Fprintf(&body, "Total Price: $%.2f\n\n", event.TotalPrice)
	body.WriteString("Thank you for choosing our airline!\nSafe travels!")

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", event.Email)
	msg.SetHeader("Subject", "Booking Confirmation - PNR: "+event.PNR)
	msg.SetBody("text/plain", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation mail: %w", err)
	}
	return nil
}

// LogMailer 未設定 SMTP 時的替代實作，只記錄不寄送。
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{log: logger.WithComponent("mailer")}
}

func (m *LogMailer) SendBookingConfirmation(event *model.BookingConfirmedEvent) error {
	m.log.Info("booking confirmation (mail disabled)",
		zap.String("pnr", event.PNR),
		zap.String("user_id", event.UserID),
		zap.Strings("seats", event.SeatNumbers))
	return nil
}
