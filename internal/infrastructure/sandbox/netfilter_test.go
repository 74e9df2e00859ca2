package sandbox

import (
	"context"
	"testing"

	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/stretchr/testify/require"
)

func TestDialValidatedRejectsPolicyDenied(t *testing.T) {
	doc, err := policy.Parse([]byte(`version: "1.0"`), nil)
	require.NoError(t, err)
	c, err := compiled.Compile(doc)
	require.NoError(t, err)

	_, err = dialValidated(context.Background(), c, nil, "example.com", 443, "tcp")
	require.Error(t, err)
}

func TestDialValidatedRejectsPrivateAddress(t *testing.T) {
	doc, err := policy.Parse([]byte(`
version: "1.0"
core:
  network:
    allow:
      - host: "localhost"
        ports: [80]
`), nil)
	require.NoError(t, err)
	c, err := compiled.Compile(doc)
	require.NoError(t, err)

	_, err = dialValidated(context.Background(), c, nil, "localhost", 80, "tcp")
	require.Error(t, err)
}
