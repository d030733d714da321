package reminder

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carrierdesk/carrierdesk/internal/shared"
)

const chatBaseURL = "https://wa.me/"

// ErrNoPhone is returned when a party has no usable phone number.
var ErrNoPhone = errors.New("party has no valid phone number")

// Message is the text of a payment reminder.
type Message struct {
	PartyName string
	Company   string
	Amount    decimal.Decimal
	Bilties   []string
}

func (m Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s, a payment of %s is pending", m.PartyName, shared.FormatRupees(m.Amount))
	if len(m.Bilties) > 0 {
		fmt.Fprintf(&b, " against bilty no. %s", strings.Join(m.Bilties, ", "))
	}
	b.WriteString(". Kindly arrange the payment at the earliest.")
	if m.Company != "" {
		fmt.Fprintf(&b, " - %s", m.Company)
	}
	return b.String()
}

// BuildLink returns the click-to-chat URL that opens msg addressed to phone.
func BuildLink(phone, region string, msg Message) (string, error) {
	e164, err := shared.NormalizePhone(phone, region)
	if err != nil {
		return "", ErrNoPhone
	}
	return chatBaseURL + strings.TrimPrefix(e164, "+") + "?text=" + url.QueryEscape(msg.String()), nil
}
