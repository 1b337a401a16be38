// Package email envía los correos transaccionales (OTP de verificación y de reset).
//
//	Gateway (best-effort, toggle EMAIL_SERVICE_ENABLED)
//	  └─ Templates (html/template + text/template, embebidos o desde disco)
//	  └─ Sender (SMTPSender sobre go-mail)
package email
