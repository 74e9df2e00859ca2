package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"oras.land/oras-go/v2/content"

	"github.com/mcpkit-dev/mcpkit/internal/domain/bundle"
)

func newReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func fetchAll(ctx context.Context, store content.Storage, desc bundle.Descriptor) ([]byte, error) {
	return content.FetchAll(ctx, store, desc)
}

func unmarshalManifest(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}
