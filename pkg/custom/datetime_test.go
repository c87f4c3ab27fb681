package custom

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDatetime_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   Datetime
		want string
	}{
		{
			name: "Value",
			in:   Datetime(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)),
			want: `"2024-05-01T12:30:00Z"`,
		},
		{
			name: "Zero",
			in:   Datetime{},
			want: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, string(got))
		})
	}
}

func TestDatetime_JSONRoundTrip(t *testing.T) {
	in := Datetime(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Datetime
	require.NoError(t, json.Unmarshal(data, &out))
	require.True(t, in.Time().Equal(out.Time()))
}

func TestDatetime_UnmarshalInvalid(t *testing.T) {
	var out Datetime
	require.Error(t, json.Unmarshal([]byte(`"not-a-datetime"`), &out))
}
