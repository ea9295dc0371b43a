package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromAuthorization(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Session
	}{
		{name: "bearer token", header: "Bearer abc123", want: Session{Token: "abc123"}},
		{name: "case insensitive scheme", header: "bearer abc123", want: Session{Token: "abc123"}},
		{name: "surrounding whitespace", header: "  Bearer   abc123  ", want: Session{Token: "abc123"}},
		{name: "empty header", header: "", want: Session{}},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", want: Session{}},
		{name: "scheme only", header: "Bearer", want: Session{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromAuthorization(tt.header))
		})
	}
}

func TestSession_Authorization(t *testing.T) {
	assert.Equal(t, "Bearer tok", Session{Token: "tok"}.Authorization())
	assert.Empty(t, Anonymous().Authorization())
	assert.False(t, Anonymous().Authenticated())
}
