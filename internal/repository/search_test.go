package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{term: "Acme", want: "%acme%"},
		{term: "50%", want: `%50\%%`},
		{term: "a_b", want: `%a\_b%`},
		{term: `c:\tmp`, want: `%c:\\tmp%`},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, containsPattern(tt.term))
		})
	}
}
