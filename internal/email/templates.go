package email

import (
	"bytes"
	"embed"
	"fmt"
	htemplate "html/template"
	"io/fs"
	"os"
	ttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var defaultFS embed.FS

// Kind identifica un template.
type Kind string

const (
	KindVerify Kind = "verify_otp"
	KindReset  Kind = "reset_otp"
)

// Subjects por template.
var subjects = map[Kind]string{
	KindVerify: "Verify your account",
	KindReset:  "Reset Password Verification Code",
}

// OTPVars son las variables que reciben los templates de OTP.
type OTPVars struct {
	Code       string
	TTLMinutes int
	Email      string
}

// Templates renderiza html+txt por Kind.
type Templates struct {
	html *htemplate.Template
	text *ttemplate.Template
}

// LoadTemplates carga desde dir (si no es vacío) o desde los embebidos.
// Archivos: <kind>.html y <kind>.txt.
func LoadTemplates(dir string) (*Templates, error) {
	var fsys fs.FS = defaultFS
	pattern := "templates/*"
	if dir != "" {
		fsys = os.DirFS(dir)
		pattern = "*"
	}
	h, err := htemplate.ParseFS(fsys, pattern+".html")
	if err != nil {
		return nil, fmt.Errorf("email: parse html templates: %w", err)
	}
	t, err := ttemplate.ParseFS(fsys, pattern+".txt")
	if err != nil {
		return nil, fmt.Errorf("email: parse text templates: %w", err)
	}
	for k := range subjects {
		if h.Lookup(string(k)+".html") == nil || t.Lookup(string(k)+".txt") == nil {
			return nil, fmt.Errorf("email: missing template %s", k)
		}
	}
	return &Templates{html: h, text: t}, nil
}

// Render devuelve subject, html y texto para kind.
func (t *Templates) Render(kind Kind, vars any) (subject, html, text string, err error) {
	subject, ok := subjects[kind]
	if !ok {
		return "", "", "", fmt.Errorf("email: unknown template %q", kind)
	}
	var hb, tb bytes.Buffer
	if err := t.html.ExecuteTemplate(&hb, string(kind)+".html", vars); err != nil {
		return "", "", "", fmt.Errorf("email: render %s html: %w", kind, err)
	}
	if err := t.text.ExecuteTemplate(&tb, string(kind)+".txt", vars); err != nil {
		return "", "", "", fmt.Errorf("email: render %s text: %w", kind, err)
	}
	return subject, hb.String(), tb.String(), nil
}
