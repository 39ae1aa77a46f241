package daraja

import "strings"

// NormalizePhone validates and formats a Kenyan MSISDN into 254XXXXXXXXX
// form. It returns "" when the number cannot be normalized.
func NormalizePhone(raw string) string {
	phone := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(raw)

	if strings.HasPrefix(phone, "0") {
		phone = "254" + phone[1:]
	}

	if !strings.HasPrefix(phone, "254") || len(phone) != 12 {
		return ""
	}

	for _, r := range phone {
		if r < '0' || r > '9' {
			return ""
		}
	}

	return phone
}
