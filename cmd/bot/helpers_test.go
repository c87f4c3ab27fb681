package main

import (
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		member *discordgo.Member
		want   string
	}{
		{
			name:   "nil member",
			member: nil,
			want:   "",
		},
		{
			name: "nickname preferred",
			member: &discordgo.Member{
				Nick: "Aninha",
				User: &discordgo.User{Username: "ana"},
			},
			want: "Aninha",
		},
		{
			name: "falls back to username",
			member: &discordgo.Member{
				User: &discordgo.User{Username: "ana"},
			},
			want: "ana",
		},
		{
			name:   "no user",
			member: new(discordgo.Member),
			want:   "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, displayName(test.member))
		})
	}
}
