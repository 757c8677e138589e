package booking

import (
	"slices"
	"strings"
	"unicode/utf8"

	"smartbus/internal/domain"
)

type Method string

const (
	MethodMTN    Method = "MTN Mobile Money"
	MethodAirtel Method = "Airtel Money"
	MethodBank   Method = "Bank Transfer"
	MethodCard   Method = "Card"
)

// Methods lists the selectable payment methods in display order.
var Methods = []Method{MethodMTN, MethodAirtel, MethodBank, MethodCard}

var Banks = []string{
	"BK (Bank of Kigali)",
	"BPR (Banque Populaire du Rwanda)",
	"Equity Bank",
	"Cogebanque",
	"Other",
}

var CardNetworks = []string{"Mastercard", "Visa", "American Express", "UnionPay"}

const (
	minAccountHolderLen = 4
	cardNumberLen       = 16
	cardExpiryLen       = 5
)

// ParseMethod accepts the canonical names as well as the longer button
// labels ("Bank Transfer (Select Bank)", "Credit/Debit Card (Select Card)").
func ParseMethod(name string) (Method, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return "", domain.ValidationError{Field: "method", Msg: "required"}
	case strings.Contains(n, "mtn"):
		return MethodMTN, nil
	case strings.Contains(n, "airtel"):
		return MethodAirtel, nil
	case strings.Contains(n, "bank"):
		return MethodBank, nil
	case strings.Contains(n, "card"):
		return MethodCard, nil
	}
	return "", domain.ValidationError{Field: "method", Msg: "unknown payment method"}
}

// PaymentDetails is the method-specific part of a payment selection. Each
// method carries exactly the fields it needs.
type PaymentDetails interface {
	Method() Method
	// Item is the label shown on the confirmation: the provider, bank or
	// card network.
	Item() string
	validate() error
}

type MobileMoney struct {
	Provider Method
}

func (m MobileMoney) Method() Method  { return m.Provider }
func (m MobileMoney) Item() string    { return string(m.Provider) }
func (m MobileMoney) validate() error { return nil }

type BankTransfer struct {
	Bank          string
	AccountHolder string
}

func (b BankTransfer) Method() Method { return MethodBank }
func (b BankTransfer) Item() string   { return b.Bank }

func (b BankTransfer) validate() error {
	if b.Bank == "" {
		return domain.ValidationError{Field: "bank", Msg: "select a bank"}
	}
	return validateAccountHolder(b.AccountHolder)
}

type CardPayment struct {
	Network       string
	AccountHolder string
	Number        string
	Expiry        string
}

func (c CardPayment) Method() Method { return MethodCard }
func (c CardPayment) Item() string   { return c.Network }

func (c CardPayment) validate() error {
	if c.Network == "" {
		return domain.ValidationError{Field: "card_network", Msg: "select a card type"}
	}
	if err := validateAccountHolder(c.AccountHolder); err != nil {
		return err
	}
	if len(c.Number) != cardNumberLen {
		return domain.ValidationError{Field: "card_number", Msg: "must be 16 digits"}
	}
	if len(c.Expiry) != cardExpiryLen {
		return domain.ValidationError{Field: "card_expiry", Msg: "must be MM/YY"}
	}
	return nil
}

func validateAccountHolder(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minAccountHolderLen {
		return domain.ValidationError{Field: "account_holder", Msg: "must be longer than 3 characters"}
	}
	return nil
}

// PaymentInput is a partial update of the current method's fields. Nil
// pointers leave a field untouched.
type PaymentInput struct {
	Bank          *string `json:"bank"`
	CardNetwork   *string `json:"card_network"`
	AccountHolder *string `json:"account_holder"`
	CardNumber    *string `json:"card_number"`
	CardExpiry    *string `json:"card_expiry"`
}

// PaymentSelection holds the chosen method and its details.
type PaymentSelection struct {
	details PaymentDetails
}

// SelectMethod replaces the method. Every sub-selection and field of the
// previous method is dropped, including when the same method is chosen
// again.
func (p *PaymentSelection) SelectMethod(name string) error {
	m, err := ParseMethod(name)
	if err != nil {
		return err
	}
	switch m {
	case MethodBank:
		p.details = BankTransfer{}
	case MethodCard:
		p.details = CardPayment{}
	default:
		p.details = MobileMoney{Provider: m}
	}
	return nil
}

// Update applies in to the current method. Fields that do not belong to
// the method are rejected.
func (p *PaymentSelection) Update(in PaymentInput) error {
	switch d := p.details.(type) {
	case nil:
		return domain.ValidationError{Field: "method", Msg: "select a payment method first"}
	case MobileMoney:
		if in.Bank != nil || in.CardNetwork != nil || in.AccountHolder != nil || in.CardNumber != nil || in.CardExpiry != nil {
			return domain.ValidationError{Field: "method", Msg: "mobile money needs no further details"}
		}
	case BankTransfer:
		if in.CardNetwork != nil || in.CardNumber != nil || in.CardExpiry != nil {
			return domain.ValidationError{Field: "method", Msg: "card fields do not apply to bank transfer"}
		}
		if in.Bank != nil {
			bank, err := pickOption("bank", Banks, *in.Bank)
			if err != nil {
				return err
			}
			d.Bank = bank
		}
		if in.AccountHolder != nil {
			d.AccountHolder = *in.AccountHolder
		}
		p.details = d
	case CardPayment:
		if in.Bank != nil {
			return domain.ValidationError{Field: "method", Msg: "bank does not apply to card payment"}
		}
		if in.CardNetwork != nil {
			network, err := pickOption("card_network", CardNetworks, *in.CardNetwork)
			if err != nil {
				return err
			}
			d.Network = network
		}
		if in.AccountHolder != nil {
			d.AccountHolder = *in.AccountHolder
		}
		if in.CardNumber != nil {
			d.Number = keepRunes(*in.CardNumber, "0123456789", cardNumberLen)
		}
		if in.CardExpiry != nil {
			d.Expiry = keepRunes(*in.CardExpiry, "0123456789/", cardExpiryLen)
		}
		p.details = d
	}
	return nil
}

// Ready returns nil when the confirmation can be enabled, otherwise the
// first missing requirement.
func (p *PaymentSelection) Ready() error {
	if p.details == nil {
		return domain.ValidationError{Field: "method", Msg: "select a payment method"}
	}
	return p.details.validate()
}

func (p *PaymentSelection) Method() Method {
	if p.details == nil {
		return ""
	}
	return p.details.Method()
}

func (p *PaymentSelection) Details() PaymentDetails { return p.details }

// Reset clears the method and all of its fields.
func (p *PaymentSelection) Reset() { p.details = nil }

// PaymentView is the display form of a selection. Card numbers are masked.
type PaymentView struct {
	Method        Method `json:"method,omitempty"`
	Item          string `json:"item,omitempty"`
	Bank          string `json:"bank,omitempty"`
	CardNetwork   string `json:"card_network,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`
	CardNumber    string `json:"card_number,omitempty"`
	CardExpiry    string `json:"card_expiry,omitempty"`
	Ready         bool   `json:"ready"`
	Missing       string `json:"missing,omitempty"`
}

func (p *PaymentSelection) View() PaymentView {
	v := PaymentView{Method: p.Method()}
	switch d := p.details.(type) {
	case MobileMoney:
		v.Item = d.Item()
	case BankTransfer:
		v.Item, v.Bank, v.AccountHolder = d.Item(), d.Bank, d.AccountHolder
	case CardPayment:
		v.Item, v.CardNetwork, v.AccountHolder, v.CardExpiry = d.Item(), d.Network, d.AccountHolder, d.Expiry
		v.CardNumber = maskCard(d.Number)
	}
	if err := p.Ready(); err != nil {
		v.Missing = err.Error()
	} else {
		v.Ready = true
	}
	return v
}

// pickOption matches value against options by exact name or by the first
// word ("BK", "Visa").
func pickOption(field string, options []string, value string) (string, error) {
	value = strings.TrimSpace(value)
	if slices.Contains(options, value) {
		return value, nil
	}
	for _, o := range options {
		if strings.EqualFold(strings.Fields(o)[0], value) || strings.EqualFold(o, value) {
			return o, nil
		}
	}
	return "", domain.ValidationError{Field: field, Msg: "unknown option " + value}
}

func keepRunes(s, allowed string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(allowed, r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func maskCard(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
