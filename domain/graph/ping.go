package graph

import (
	"context"
	"net/http"

	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// Pinger reports whether a DAO's backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func (d *EmbeddedDao) Ping(ctx context.Context) error {
	return d.store.Ping(ctx)
}

// Ping succeeds on any HTTP answer from the peer; only transport failures
// count as unreachable.
func (d *RemoteDao) Ping(ctx context.Context) error {
	req, err := d.prepareRequest(ctx, http.MethodGet, d.endpoint("transaction/ping", "", nil), "", nil)
	if err != nil {
		return err
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return apperror.NewInternal("remote graph unreachable", err)
	}
	resp.Body.Close()
	return nil
}
