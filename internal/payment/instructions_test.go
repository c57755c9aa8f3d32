package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitialStatus(t *testing.T) {
	require.Equal(t, StatusAwaitingConfirmation, InitialStatus(MethodCash))
	require.Equal(t, StatusAwaitingConfirmation, InitialStatus(MethodBankTransfer))
	require.Equal(t, StatusPending, InitialStatus(MethodPromptPay))
	require.Equal(t, StatusPending, InitialStatus(MethodCreditCard))

	// unknown methods normalize to bank transfer, which waits for a human
	require.Equal(t, StatusAwaitingConfirmation, InitialStatus(Method("paypal?")))
}

func TestNormalizeFallsBackOnUnknownMethod(t *testing.T) {
	require.Equal(t, MethodPromptPay, Normalize(MethodPromptPay))
	require.Equal(t, DefaultMethod, Normalize(Method("")))
	require.Equal(t, DefaultMethod, Normalize(Method("wire")))
}

func TestResolveCarriesReferenceAndAmount(t *testing.T) {
	ins := Resolve(MethodPromptPay, StatusPending, 3980, "CHK-20250301-7FKQ4Z")

	require.Equal(t, "PromptPay", ins.Label)
	require.Contains(t, ins.Summary, "CHK-20250301-7FKQ4Z")
	require.Contains(t, ins.Summary, "3980.00 THB")
	require.NotEmpty(t, ins.Steps)
	require.Contains(t, ins.Note, "Complete the payment")
}

func TestResolveUnknownMethodRendersDefault(t *testing.T) {
	ins := Resolve(Method("whatever"), StatusAwaitingConfirmation, 500, "CHK-20250301-AAAAAA")

	require.Equal(t, "Bank transfer", ins.Label)
	require.Contains(t, ins.Note, "waiting to confirm")
}

func TestResolveNoteTracksStatus(t *testing.T) {
	paid := Resolve(MethodCash, StatusPaid, 100, "CHK-20250301-BBBBBB")
	require.Contains(t, paid.Note, "already paid")

	cancelled := Resolve(MethodCash, StatusCancelled, 100, "CHK-20250301-BBBBBB")
	require.Contains(t, cancelled.Note, "cancelled")
}
