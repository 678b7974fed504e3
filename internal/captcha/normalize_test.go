package captcha

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in   string
		code string
		ok   bool
	}{
		{in: "a b c 1 2\n", code: "ABC12", ok: true},
		{in: "ABCDEFG", code: "ABCDE", ok: true},
		{in: "x-7_q.9!z", code: "X7Q9Z", ok: true},
		{in: "AB1", code: "AB1", ok: false},
		{in: "", code: "", ok: false},
		{in: "éé12345", code: "12345", ok: true},
	}

	for _, c := range cases {
		code, ok := NormalizeCode(c.in, DefaultLength)
		require.Equal(t, c.code, code, "input %q", c.in)
		require.Equal(t, c.ok, ok, "input %q", c.in)
	}
}

func TestNormalizeCodeLaws(t *testing.T) {
	inputs := []string{
		"a b c 1 2\n",
		"hello world 42",
		"??",
		"zz9",
		"  k3y!k3y!k3y ",
		"ÄÖÜ ß 1a",
	}

	for _, in := range inputs {
		once, ok := NormalizeCode(in, DefaultLength)
		twice, okTwice := NormalizeCode(once, DefaultLength)
		require.Equal(t, once, twice, "idempotent for %q", in)
		require.Equal(t, ok, okTwice)

		if ok {
			require.Len(t, once, DefaultLength)
		}
		for _, c := range once {
			require.True(t, (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'), "unexpected %q", c)
		}
	}
}
