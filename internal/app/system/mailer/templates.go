// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// CredentialsEmailData holds data for the credentials email.
type CredentialsEmailData struct {
	SiteName string
	Name     string
	NIM      string
	Email    string
	Password string
	LoginURL string
}

// BuildCredentialsEmail creates the email that delivers a freshly generated
// password, with both HTML and text bodies.
func BuildCredentialsEmail(data CredentialsEmailData) Email {
	return Email{
		To:       data.Email,
		Subject:  fmt.Sprintf("Your %s login credentials", data.SiteName),
		TextBody: buildCredentialsText(data),
		HTMLBody: buildCredentialsHTML(data),
	}
}

func buildCredentialsText(data CredentialsEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hello %s,\n\n", data.Name))
	buf.WriteString(fmt.Sprintf("Here are your %s login credentials.\n\n", data.SiteName))
	if data.NIM != "" {
		buf.WriteString(fmt.Sprintf("NIM:      %s\n", data.NIM))
	}
	buf.WriteString(fmt.Sprintf("Email:    %s\n", data.Email))
	buf.WriteString(fmt.Sprintf("Password: %s\n\n", data.Password))
	if data.LoginURL != "" {
		buf.WriteString("Sign in at:\n")
		buf.WriteString(data.LoginURL + "\n\n")
	}
	buf.WriteString("Keep this password private. Any earlier password no longer works.\n")
	return buf.String()
}

var credentialsTmpl = template.Must(template.New("credentials").Parse(credentialsHTMLTemplate))

func buildCredentialsHTML(data CredentialsEmailData) string {
	var buf bytes.Buffer
	_ = credentialsTmpl.Execute(&buf, data)
	return buf.String()
}

const credentialsHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Login Credentials</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hello {{.Name}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">Here are your login credentials:</p>
              <table role="presentation" cellspacing="0" cellpadding="4" style="margin-bottom: 24px; font-size: 15px; color: #1f2937;">
                {{if .NIM}}<tr><td style="color: #6b7280;">NIM</td><td>{{.NIM}}</td></tr>{{end}}
                <tr><td style="color: #6b7280;">Email</td><td>{{.Email}}</td></tr>
                <tr><td style="color: #6b7280;">Password</td><td style="font-family: 'Courier New', monospace; font-weight: 700;">{{.Password}}</td></tr>
              </table>
              {{if .LoginURL}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.LoginURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">Sign In</a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">Keep this password private. Any earlier password no longer works.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
