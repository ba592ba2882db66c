// Package dispatch decides what a scan of a QR code returns: a redirect to an
// external destination or a rendered landing page.
package dispatch

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/serroba/qr-tracker/internal/qrcode"
)

// Kind is the shape of a dispatch result.
type Kind int

const (
	Redirect Kind = iota
	Content
)

func (k Kind) String() string {
	if k == Redirect {
		return "redirect"
	}

	return "content"
}

// Response is either a redirect URL or an HTML document.
type Response struct {
	Kind Kind
	URL  string
	HTML []byte
}

//go:embed templates/*.html
var templateFS embed.FS

var pages = mustParsePages()

const genericPage = "generic"

func mustParsePages() map[string]*template.Template {
	layout := template.Must(template.ParseFS(templateFS, "templates/layout.html"))

	names := []string{
		string(qrcode.TypeVCard), string(qrcode.TypeWiFi), string(qrcode.TypeText),
		string(qrcode.TypeMenu), string(qrcode.TypeEvent), string(qrcode.TypeMultiURL),
		string(qrcode.TypePayment), string(qrcode.TypeAppDownload), genericPage,
	}

	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.Must(layout.Clone())
		out[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}

	return out
}

type pageData struct {
	Title    string
	Type     string
	Data     any
	Extra    string
	Download template.URL
}

// Dispatch maps qr to exactly one response. It never fails: unknown types and
// unusable payloads produce a generic content page.
func Dispatch(qr *qrcode.QRCode) Response {
	if target, ok := redirectTarget(qr); ok {
		return Response{Kind: Redirect, URL: target}
	}

	if page, ok := contentPage(qr); ok {
		return page
	}

	return fallback(qr)
}

func redirectTarget(qr *qrcode.QRCode) (string, bool) {
	switch qr.Type {
	case qrcode.TypeURL:
		d, err := qrcode.DecodeData[qrcode.URLData](qr.Data)

		return d.URL, err == nil && isWebURL(d.URL)
	case qrcode.TypePDF, qrcode.TypeImage, qrcode.TypeVideo:
		d, err := qrcode.DecodeData[qrcode.FileData](qr.Data)

		return d.Link(), err == nil && isWebURL(d.Link())
	case qrcode.TypePhone:
		d, err := qrcode.DecodeData[qrcode.PhoneData](qr.Data)
		if err != nil || d.Phone == "" {
			return "", false
		}

		return "tel:" + compactPhone(d.Phone), true
	case qrcode.TypeEmail:
		d, err := qrcode.DecodeData[qrcode.EmailData](qr.Data)
		if err != nil || d.Email == "" {
			return "", false
		}

		return MailtoURL(d), true
	case qrcode.TypeSMS:
		d, err := qrcode.DecodeData[qrcode.SMSData](qr.Data)
		if err != nil || d.Phone == "" {
			return "", false
		}

		target := "sms:" + compactPhone(d.Phone)
		if d.Message != "" {
			target += "?body=" + queryEscape(d.Message)
		}

		return target, true
	case qrcode.TypeLocation:
		d, err := qrcode.DecodeData[qrcode.LocationData](qr.Data)
		if err != nil {
			return "", false
		}

		return MapsURL(d)
	}

	return "", false
}

// MailtoURL builds a mailto link carrying the optional subject and body.
func MailtoURL(d qrcode.EmailData) string {
	params := make([]string, 0, 2)
	if d.Subject != "" {
		params = append(params, "subject="+queryEscape(d.Subject))
	}

	if d.Body != "" {
		params = append(params, "body="+queryEscape(d.Body))
	}

	target := "mailto:" + url.PathEscape(d.Email)
	if len(params) > 0 {
		target += "?" + strings.Join(params, "&")
	}

	return target
}

// MapsURL links to Google Maps, preferring coordinates over the address.
func MapsURL(d qrcode.LocationData) (string, bool) {
	if d.Latitude != nil && d.Longitude != nil {
		return "https://www.google.com/maps?q=" +
			strconv.FormatFloat(*d.Latitude, 'f', -1, 64) + "," +
			strconv.FormatFloat(*d.Longitude, 'f', -1, 64), true
	}

	if strings.TrimSpace(d.Address) != "" {
		return "https://www.google.com/maps/search/?api=1&query=" + queryEscape(d.Address), true
	}

	return "", false
}

func contentPage(qr *qrcode.QRCode) (Response, bool) {
	data := pageData{Title: qr.Name, Type: string(qr.Type)}

	var err error

	switch qr.Type {
	case qrcode.TypeVCard:
		var d qrcode.VCardData
		d, err = qrcode.DecodeData[qrcode.VCardData](qr.Data)
		data.Data = d
		data.Download = template.URL("data:text/vcard;charset=utf-8," + url.PathEscape(VCard(d)))
		data.Title = firstNonEmpty(strings.TrimSpace(d.FirstName+" "+d.LastName), qr.Name, "Contact")
	case qrcode.TypeWiFi:
		var d qrcode.WiFiData
		d, err = qrcode.DecodeData[qrcode.WiFiData](qr.Data)
		data.Data = d
		data.Extra = WiFiConfig(d)
		data.Title = firstNonEmpty(qr.Name, "Wi-Fi network")
	case qrcode.TypeText:
		data.Data, err = qrcode.DecodeData[qrcode.TextData](qr.Data)
		data.Title = firstNonEmpty(qr.Name, "Message")
	case qrcode.TypeMenu:
		var d qrcode.MenuData
		d, err = qrcode.DecodeData[qrcode.MenuData](qr.Data)
		data.Data = d
		data.Title = firstNonEmpty(d.RestaurantName, qr.Name, "Menu")
	case qrcode.TypeEvent:
		var d qrcode.EventData
		d, err = qrcode.DecodeData[qrcode.EventData](qr.Data)
		data.Data = d
		data.Title = firstNonEmpty(d.Title, qr.Name, "Event")
	case qrcode.TypeMultiURL:
		var d qrcode.MultiURLData
		d, err = qrcode.DecodeData[qrcode.MultiURLData](qr.Data)
		data.Data = d
		data.Title = firstNonEmpty(d.Title, qr.Name, "Links")
	case qrcode.TypePayment:
		data.Data, err = qrcode.DecodeData[qrcode.PaymentData](qr.Data)
		data.Title = firstNonEmpty(qr.Name, "Payment")
	case qrcode.TypeAppDownload:
		var d qrcode.AppDownloadData
		d, err = qrcode.DecodeData[qrcode.AppDownloadData](qr.Data)
		data.Data = d
		data.Title = firstNonEmpty(d.AppName, qr.Name, "Download the app")
	default:
		return Response{}, false
	}

	if err != nil {
		return Response{}, false
	}

	body, err := render(string(qr.Type), data)
	if err != nil {
		return Response{}, false
	}

	return Response{Kind: Content, HTML: body}, true
}

func fallback(qr *qrcode.QRCode) Response {
	data := pageData{Title: firstNonEmpty(qr.Name, "QR code"), Type: string(qr.Type)}

	body, err := render(genericPage, data)
	if err != nil {
		body = []byte("<!DOCTYPE html><html><body><p>Unsupported content type " +
			html.EscapeString(string(qr.Type)) + "</p></body></html>")
	}

	return Response{Kind: Content, HTML: body}
}

func render(name string, data pageData) ([]byte, error) {
	t, ok := pages[name]
	if !ok {
		return nil, fmt.Errorf("no page for %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func compactPhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}

		return r
	}, phone)
}

// queryEscape encodes spaces as %20, which mail and sms clients expect.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
