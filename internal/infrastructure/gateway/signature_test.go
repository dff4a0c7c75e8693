package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	payload := "order_gw_1|rzp_pay_1"
	secret := "test_secret"

	sig := Sign(payload, secret)
	require.NotEmpty(t, sig)
	require.True(t, VerifySignature(payload, sig, secret))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	secret := "test_secret"
	sig := Sign("order_gw_1|rzp_pay_1", secret)

	require.False(t, VerifySignature("order_gw_1|rzp_pay_2", sig, secret))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := "order_gw_1|rzp_pay_1"
	sig := Sign(payload, "secret_a")

	require.False(t, VerifySignature(payload, sig, "secret_b"))
}

func TestVerifyRejectsEmptySignature(t *testing.T) {
	require.False(t, VerifySignature("payload", "", "secret"))
}

func TestSignIsDeterministic(t *testing.T) {
	require.Equal(t, Sign("abc", "k"), Sign("abc", "k"))
	require.NotEqual(t, Sign("abc", "k"), Sign("abd", "k"))
}
