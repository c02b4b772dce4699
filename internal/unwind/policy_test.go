package unwind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/pest2phpunit/internal/unwind"
)

func TestClassNamePolicy_Default(t *testing.T) {
	p := unwind.DefaultClassNamePolicy()
	tests := []struct {
		in   string
		want bool
	}{
		{"RuntimeException", true},
		{"TypeError", true},
		{`App\Exceptions\Custom`, true},
		{`\App\Thing`, true},
		{"An Error", false},
		{"Caught a RuntimeException", false},
		{"Something", false},
		{"", false},
		{"123Exception", false},
		{`App\`, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsClassName(tt.in))
		})
	}
}

func TestClassNamePolicy_Configured(t *testing.T) {
	p, err := unwind.NewClassNamePolicy("", []string{"Failure"})
	require.NoError(t, err)
	assert.True(t, p.IsClassName("PaymentFailure"))
	assert.False(t, p.IsClassName("RuntimeException"))

	_, err = unwind.NewClassNamePolicy("([", nil)
	assert.Error(t, err)
}

func TestClassNamePolicy_Zero(t *testing.T) {
	var p unwind.ClassNamePolicy
	assert.False(t, p.IsClassName("RuntimeException"))
}

func TestClassNamePolicy_DrivesToThrow(t *testing.T) {
	opts := unwind.DefaultOptions()
	p, err := unwind.NewClassNamePolicy("", []string{"Failure"})
	require.NoError(t, err)
	opts.ClassNames = p
	u := unwind.New(nil, opts)

	text, _ := run(t, u, "expect($fn)->toThrow('PaymentFailure')", false)
	assert.Contains(t, text, "expectException('PaymentFailure')")
}
