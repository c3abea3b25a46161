// internal/pkg/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// EmailService sends transactional mail over SMTP. When email is disabled
// in configuration every send becomes a no-op, which keeps development and
// test environments quiet.
type EmailService struct {
	config *config.Config
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{config: cfg}
}

// Email represents an outgoing message
type Email struct {
	To          []string
	Subject     string
	HTMLContent string
}

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(`
<h2>Cảm ơn bạn đã đặt hàng!</h2>
<p>Đơn hàng <strong>{{.OrderCode}}</strong> của bạn đã được tạo.</p>
<table border="0" cellpadding="6">
	<tr><th align="left">Sản phẩm</th><th align="right">SL</th><th align="right">Thành tiền</th></tr>
	{{range .Items}}
	<tr>
		<td>{{.ProductName}}{{if .OptionSummary}} ({{.OptionSummary}}){{end}}</td>
		<td align="right">{{.Quantity}}</td>
		<td align="right">{{.Subtotal}} {{$.Currency}}</td>
	</tr>
	{{end}}
	<tr><td colspan="2" align="right">Phí vận chuyển</td><td align="right">{{.ShippingFee}} {{.Currency}}</td></tr>
	<tr><td colspan="2" align="right"><strong>Tổng cộng</strong></td><td align="right"><strong>{{.TotalAmount}} {{.Currency}}</strong></td></tr>
</table>
<p>Giao đến: {{.ReceiverName}}, {{.AddressLine}}, {{.WardName}}, {{.DistrictName}}, {{.ProvinceName}}</p>
`))

// SendOrderConfirmation emails the customer a summary of their new order
func (s *EmailService) SendOrderConfirmation(recipient string, o *order.Order) error {
	var body bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&body, o); err != nil {
		return fmt.Errorf("failed to render order confirmation: %w", err)
	}

	return s.Send(&Email{
		To:          []string{recipient},
		Subject:     fmt.Sprintf("Xác nhận đơn hàng %s", o.OrderCode),
		HTMLContent: body.String(),
	})
}

// Send delivers the email over SMTP
func (s *EmailService) Send(email *Email) error {
	cfg := s.config.External.Email
	if !cfg.Enabled {
		return nil
	}
	if cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP configuration incomplete: missing host")
	}

	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}

	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(email.HTMLContent)

	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	if err := smtp.SendMail(addr, auth, cfg.FromEmail, email.To, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
