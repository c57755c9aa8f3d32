package payment

import "fmt"

type Method string

const (
	MethodPromptPay    Method = "promptpay"
	MethodCreditCard   Method = "credit_card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
)

// DefaultMethod backs any unknown method value. Historical orders were
// entered loosely, so rendering must never fail on a method we don't know.
const DefaultMethod = MethodBankTransfer

type Status string

const (
	StatusPending              Status = "pending"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusPaid                 Status = "paid"
	StatusCancelled            Status = "cancelled"
)

// Instructions is the customer-facing guidance for paying an order. It is
// derived, never stored.
type Instructions struct {
	Label   string   `json:"label"`
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
	Note    string   `json:"note"`
}

func Normalize(m Method) Method {
	switch m {
	case MethodPromptPay, MethodCreditCard, MethodBankTransfer, MethodCash:
		return m
	default:
		return DefaultMethod
	}
}

// InitialStatus picks the payment status a fresh order starts in. Offline
// methods wait for a human to confirm the money arrived.
func InitialStatus(m Method) Status {
	switch Normalize(m) {
	case MethodCash, MethodBankTransfer:
		return StatusAwaitingConfirmation
	default:
		return StatusPending
	}
}

// Resolve maps (method, status, amount, reference) to display copy. Pure
// function: no state, no I/O, no transitions.
func Resolve(m Method, st Status, amount float64, referenceCode string) Instructions {
	amountText := fmt.Sprintf("%.2f THB", amount)

	var ins Instructions
	switch Normalize(m) {
	case MethodPromptPay:
		ins = Instructions{
			Label:   "PromptPay",
			Summary: fmt.Sprintf("Pay %s via PromptPay for order %s.", amountText, referenceCode),
			Steps: []string{
				"Open your banking app and choose PromptPay.",
				fmt.Sprintf("Scan the QR code on the confirmation page and pay %s.", amountText),
				fmt.Sprintf("Enter %s in the transfer note.", referenceCode),
				"Keep the slip until your booking is confirmed.",
			},
		}
	case MethodCreditCard:
		ins = Instructions{
			Label:   "Credit / debit card",
			Summary: fmt.Sprintf("Charge %s to your card for order %s.", amountText, referenceCode),
			Steps: []string{
				"Follow the secure payment link sent to your email.",
				fmt.Sprintf("Confirm the charge of %s.", amountText),
			},
		}
	case MethodCash:
		ins = Instructions{
			Label:   "Cash at hospital",
			Summary: fmt.Sprintf("Pay %s in cash on the day of your appointment.", amountText),
			Steps: []string{
				fmt.Sprintf("Quote order %s at the hospital reception desk.", referenceCode),
				fmt.Sprintf("Pay %s before your checkup begins.", amountText),
			},
		}
	default:
		ins = Instructions{
			Label:   "Bank transfer",
			Summary: fmt.Sprintf("Transfer %s and quote order %s.", amountText, referenceCode),
			Steps: []string{
				fmt.Sprintf("Transfer %s to the account shown on the confirmation page.", amountText),
				fmt.Sprintf("Put %s in the transfer reference field.", referenceCode),
				"Our staff will confirm the transfer within one business day.",
			},
		}
	}

	switch st {
	case StatusAwaitingConfirmation:
		ins.Note = "We are waiting to confirm your payment. You will be contacted once it clears."
	case StatusPaid:
		ins.Note = fmt.Sprintf("This order is already paid. Keep %s for your records.", referenceCode)
	case StatusCancelled:
		ins.Note = "This order was cancelled. No payment is due."
	default:
		ins.Note = "Complete the payment to confirm your booking."
	}
	return ins
}
