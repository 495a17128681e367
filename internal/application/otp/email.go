package otp

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/infrastructure/smtp"
)

type emailData struct {
	Code     string
	ItemName string
	ItemType string
	Minutes  int
	Year     int
}

var textBody = template.Must(template.New("text").Parse(
	`Your verification code for deleting {{.ItemName}} is: {{.Code}}. This code expires in {{.Minutes}} minutes.
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Security Verification Code</title>
  </head>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1>Security Verification</h1>
      <p>You have requested to <strong>permanently delete</strong> the following item:</p>
      <div style="background: white; padding: 15px; border-left: 4px solid #dc3545; margin: 15px 0;">
        <strong>Item:</strong> {{.ItemName}}<br>
        <strong>Type:</strong> {{.ItemType}}<br>
        <strong>Action:</strong> Permanent Deletion
      </div>
      <p>For security purposes, please use the verification code below to confirm this action:</p>
      <div style="border: 2px dashed #667eea; padding: 20px; text-align: center; margin: 20px 0;">
        <div style="font-size: 32px; font-weight: bold; letter-spacing: 8px; font-family: monospace;">{{.Code}}</div>
        <p style="margin: 10px 0 0 0; color: #666;">This code expires in {{.Minutes}} minutes</p>
      </div>
      <p><strong>Important:</strong> This action will permanently delete the item and cannot be undone.
      If you did not request this deletion, please ignore this email and contact your system administrator immediately.</p>
      <p style="text-align: center; color: #666; font-size: 14px;">This is an automated security email. Please do not reply to this message.<br>
      &copy; {{.Year}} Voucher Management System</p>
    </div>
  </body>
</html>
`))

func renderMessage(req domain.IssueRequest, code string, ttl time.Duration) (smtp.Message, error) {
	data := emailData{
		Code:     code,
		ItemName: req.ItemName,
		ItemType: strings.ToUpper(strings.ReplaceAll(req.ItemType, "-", " ")),
		Minutes:  int(ttl / time.Minute),
		Year:     time.Now().Year(),
	}
	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return smtp.Message{}, err
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return smtp.Message{}, err
	}
	return smtp.Message{
		To:      req.Email,
		Subject: "Security Code: " + code + " - Confirm Deletion",
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
