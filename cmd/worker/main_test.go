package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/primavera-events/primavera/internal/app"
	_ "github.com/primavera-events/primavera/testing"
)

func TestMainReturnsInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	require.NotPanics(t, main)
}
