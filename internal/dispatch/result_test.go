package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ifcchunk/internal/extract"
)

func f(v float64) *float64 { return &v }

func TestSummarize(t *testing.T) {
	components := []extract.Component{
		{Type: "Pipe", X: f(0), Y: f(5), Z: f(-1)},
		{Type: "Flange", X: f(10), Y: f(-2), Z: f(3)},
		{Type: "Pipe", X: f(4), Y: f(1), Z: f(9)},
		{Type: "Valve"},
		{Type: "Elbow", X: f(100)},
	}

	sum := Summarize(components)
	assert.Equal(t, 5, sum.TotalComponents)
	assert.Equal(t, []TypeCount{
		{Type: "Pipe", Count: 2},
		{Type: "Elbow", Count: 1},
		{Type: "Flange", Count: 1},
		{Type: "Valve", Count: 1},
	}, sum.ComponentTypes)

	require.NotNil(t, sum.BoundingVolume)
	assert.Equal(t, 3, sum.Positioned)
	assert.Equal(t, BoundingVolume{MinX: 0, MinY: -2, MinZ: -1, MaxX: 10, MaxY: 5, MaxZ: 9}, *sum.BoundingVolume)
}

func TestSummarize_NoPositions(t *testing.T) {
	sum := Summarize([]extract.Component{{Type: "Pipe"}})
	assert.Nil(t, sum.BoundingVolume)
	assert.Zero(t, sum.Positioned)

	empty := Summarize(nil)
	assert.NotNil(t, empty.ComponentTypes)
	assert.Empty(t, empty.ComponentTypes)
}

func TestStateTransitions(t *testing.T) {
	o := Outcome{}
	assert.Equal(t, Pending, o.State)

	assert.ErrorIs(t, o.moveTo(Succeeded), ErrInvalidTransition)
	assert.Equal(t, Pending, o.State)

	require.NoError(t, o.moveTo(InFlight))
	require.NoError(t, o.moveTo(Failed))
	assert.True(t, o.State.Terminal())

	assert.ErrorIs(t, o.moveTo(InFlight), ErrInvalidTransition)
	assert.ErrorIs(t, o.moveTo(Succeeded), ErrInvalidTransition)
	assert.Equal(t, Failed, o.State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "in-flight", InFlight.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "state(9)", State(9).String())
}
