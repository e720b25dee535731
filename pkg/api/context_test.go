package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapResolver map[string]map[string]any

func (r mapResolver) CredentialByID(id string) (map[string]any, error) {
	if c, ok := r[id]; ok {
		return c, nil
	}
	return nil, errors.New("not found")
}

func (r mapResolver) CredentialByName(name string) (map[string]any, error) {
	return r.CredentialByID(name)
}

func TestNewExecutionContextDefaults(t *testing.T) {
	t.Parallel()

	ec := NewExecutionContext(nil, nil, nil, ContextConfig{})

	require.NotEmpty(t, ec.ID())
	require.NotNil(t, ec.Logger())
	require.NotNil(t, ec.Context())
	require.False(t, ec.Cancelled())
	require.Nil(t, ec.Runner())
	require.Nil(t, ec.Registry())

	ec2 := NewExecutionContext(nil, nil, nil, ContextConfig{})
	require.NotEqual(t, ec.ID(), ec2.ID(), "ids must be unique per run")

	fixed := NewExecutionContext(nil, nil, nil, ContextConfig{ExecutionID: "exec-42"})
	require.Equal(t, "exec-42", fixed.ID())
}

func TestExecutionContextCancel(t *testing.T) {
	t.Parallel()

	ec := NewExecutionContext(context.Background(), nil, Payload{}, ContextConfig{})
	require.False(t, ec.Cancelled())

	ec.Cancel()
	require.True(t, ec.Cancelled())
	require.ErrorIs(t, ec.Context().Err(), context.Canceled)
}

func TestExecutionContextInheritsParentCancellation(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	ec := NewExecutionContext(parent, nil, Payload{}, ContextConfig{})

	cancel()
	<-ec.Context().Done()
	require.True(t, ec.Cancelled())
}

func TestExecutionContextInputIsCopied(t *testing.T) {
	t.Parallel()

	input := Payload{"a": 1}
	ec := NewExecutionContext(context.Background(), nil, input, ContextConfig{})

	input["a"] = 2
	require.Equal(t, 1, ec.Input()["a"])
}

func TestExecutionContextCredentials(t *testing.T) {
	t.Parallel()

	resolver := mapResolver{"cred-1": {"token": "secret"}}
	ec := NewExecutionContext(context.Background(), nil, Payload{}, ContextConfig{Credentials: resolver})

	c, err := ec.CredentialByID("cred-1")
	require.NoError(t, err)
	require.Equal(t, "secret", c["token"])

	_, err = ec.CredentialByID("missing")
	require.Error(t, err)

	// Without a resolver every lookup is a configuration error.
	bare := NewExecutionContext(context.Background(), nil, Payload{}, ContextConfig{})
	_, err = bare.CredentialByID("cred-1")
	require.True(t, IsConfigError(err))
	_, err = bare.CredentialByName("cred-1")
	require.True(t, IsConfigError(err))
}
