package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"dreamhome/web/internal/format"
	"dreamhome/web/internal/models"
)

const (
	receiptSubjectPrefix = "Your DreamHome purchase"
	inquirySubjectPrefix = "Re: your inquiry"
)

var funcs = template.FuncMap{
	"price":    format.Price,
	"longDate": format.LongDate,
}

var receiptTmpl = template.Must(template.New("receipt").Funcs(funcs).Parse(`Hello {{.BuyerName}},

Thank you for your purchase on DreamHome.

Property:   {{.PropertyTitle}}
Amount:     {{price .Amount}} {{.Currency}}
Order:      {{.OrderID}}
Payment:    {{.PaymentID}}
Date:       {{longDate .PurchaseDate}}

Our team will be in touch about the next steps.

DreamHome
`))

var inquiryTmpl = template.Must(template.New("inquiry").Funcs(funcs).Parse(`Hello {{.Name}},

An agent has responded to your inquiry{{if .PropertyTitle}} about "{{.PropertyTitle}}"{{end}}.

Your message:
{{.Message}}

Response:
{{.Response}}

DreamHome
`))

// Message is a rendered email ready to hand to a Sender.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// ReceiptMessage renders the purchase receipt for p.
func ReceiptMessage(p models.Purchase) (*Message, error) {
	if strings.TrimSpace(p.BuyerEmail) == "" {
		return nil, fmt.Errorf("purchase %s has no buyer email", p.OrderID)
	}
	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return &Message{
		To:      []string{p.BuyerEmail},
		Subject: fmt.Sprintf("%s: %s", receiptSubjectPrefix, p.PropertyTitle),
		Body:    buf.String(),
	}, nil
}

// InquiryResponseMessage renders the notice sent to the inquirer once an
// admin has responded.
func InquiryResponseMessage(inq models.Inquiry) (*Message, error) {
	if inq.User == nil || strings.TrimSpace(inq.User.Email) == "" {
		return nil, fmt.Errorf("inquiry %d has no recipient", inq.ID)
	}
	data := struct {
		Name          string
		PropertyTitle string
		Message       string
		Response      string
	}{
		Name:     inq.User.DisplayName(),
		Message:  inq.Message,
		Response: inq.AdminResponse,
	}
	subject := inquirySubjectPrefix
	if inq.Property != nil {
		data.PropertyTitle = inq.Property.Title
		subject = fmt.Sprintf("%s about %s", inquirySubjectPrefix, inq.Property.Title)
	}

	var buf bytes.Buffer
	if err := inquiryTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render inquiry response: %w", err)
	}
	return &Message{To: []string{inq.User.Email}, Subject: subject, Body: buf.String()}, nil
}

// BuildRaw assembles the RFC 5322 message SMTP expects.
func BuildRaw(from string, m *Message, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}
