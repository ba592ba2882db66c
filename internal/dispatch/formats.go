package dispatch

import (
	"strings"

	"github.com/serroba/qr-tracker/internal/qrcode"
)

// WiFiConfig renders the WIFI: network string understood by phone cameras.
func WiFiConfig(d qrcode.WiFiData) string {
	enc := d.Encryption
	if enc == "" {
		enc = "WPA"
	}

	var b strings.Builder

	b.WriteString("WIFI:T:" + escapeWiFi(enc) + ";S:" + escapeWiFi(d.SSID) + ";")

	if d.Password != "" && !strings.EqualFold(enc, "nopass") {
		b.WriteString("P:" + escapeWiFi(d.Password) + ";")
	}

	if d.Hidden {
		b.WriteString("H:true;")
	}

	b.WriteString(";")

	return b.String()
}

var wifiEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, `:`, `\:`, `"`, `\"`)

func escapeWiFi(s string) string {
	return wifiEscaper.Replace(s)
}

// VCard renders a vCard 3.0 document.
func VCard(d qrcode.VCardData) string {
	lines := []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"N:" + escapeVCard(d.LastName) + ";" + escapeVCard(d.FirstName) + ";;;",
		"FN:" + escapeVCard(strings.TrimSpace(d.FirstName+" "+d.LastName)),
	}

	optional := []struct{ key, value string }{
		{"ORG", d.Organization},
		{"TITLE", d.Title},
		{"TEL", d.Phone},
		{"EMAIL", d.Email},
		{"URL", d.Website},
		{"ADR", d.Address},
	}

	for _, field := range optional {
		if field.value == "" {
			continue
		}

		value := escapeVCard(field.value)
		if field.key == "ADR" {
			value = ";;" + value + ";;;;"
		}

		lines = append(lines, field.key+":"+value)
	}

	lines = append(lines, "END:VCARD")

	return strings.Join(lines, "\r\n") + "\r\n"
}

var vcardEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `,`, `\,`, `;`, `\;`)

func escapeVCard(s string) string {
	return vcardEscaper.Replace(s)
}
