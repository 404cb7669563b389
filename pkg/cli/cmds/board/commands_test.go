package board

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rig.go/pkg/l0/comm"
)

func TestParseMotorState(t *testing.T) {
	testCases := []struct {
		args   []string
		expect comm.MotorState
		err    string
	}{
		{args: []string{"fwd", "200"}, expect: comm.Fwd(200)},
		{args: []string{"rev"}, expect: comm.Rev(0)},
		{args: []string{"idle", "0"}, expect: comm.Idle(0)},
		{args: nil, err: "KIND required"},
		{args: []string{"up"}, err: `Invalid KIND: "up", expect idle, fwd or rev`},
		{args: []string{"fwd", "256"}, err: `Invalid POWER: "256"`},
		{args: []string{"fwd", "-1"}, err: `Invalid POWER: "-1"`},
	}
	for _, tc := range testCases {
		state, err := ParseMotorState(tc.args)
		if tc.err != "" {
			require.EqualError(t, err, tc.err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.expect, state)
	}
}
