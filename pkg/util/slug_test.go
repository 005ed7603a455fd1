package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "Simple title", in: "The Cathedral and the Bazaar", want: "the-cathedral-and-the-bazaar"},
		{name: "Punctuation collapses", in: "Pride & Prejudice!!", want: "pride-prejudice"},
		{name: "Accents stripped", in: "Les Misérables", want: "les-miserables"},
		{name: "Leading and trailing separators", in: "  --Go 101--  ", want: "go-101"},
		{name: "Empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
