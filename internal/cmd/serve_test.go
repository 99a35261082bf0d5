package cmd

import (
	"context"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrasemi/qualitylens/internal/appid"
	errwrap "github.com/astrasemi/qualitylens/internal/errors"
)

func TestCheckIdentity(t *testing.T) {
	ctx := context.Background()
	identity, err := appid.Get(ctx)
	require.NoError(t, err)
	assert.NoError(t, checkIdentity(identity)(ctx))

	cases := map[string]*appidentity.Identity{
		"app identity missing binary name": nil,
		"app identity missing env prefix":  {BinaryName: "x"},
		"app identity missing config name": {BinaryName: "x", EnvPrefix: "X_"},
	}
	for want, id := range cases {
		var envelope *errwrap.Envelope
		require.ErrorAs(t, checkIdentity(id)(ctx), &envelope)
		assert.Equal(t, want, envelope.Message)
		assert.Equal(t, errwrap.CodeConfigInvalid, envelope.Code)
	}
}
