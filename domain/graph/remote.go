package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
	"github.com/onap/aai-gizmo-sub001/pkg/tracing"
)

// Peer API headers and query parameters.
const (
	HeaderFromAppID     = "X-FromAppId"
	HeaderTransactionID = "X-TransactionId"
	QueryTransactionID  = "transactionId"
	QueryType           = "type"
	QueryProperties     = "properties"
)

// RemoteDao proxies the DAO contract to a peer over HTTP. Calls are not
// retried; each one is bounded by the client timeout.
type RemoteDao struct {
	base  string
	appID string
	http  *http.Client
	log   *slog.Logger
}

var _ Dao = (*RemoteDao)(nil)

// NewRemoteDao creates a DAO talking to the peer API rooted at baseURL.
func NewRemoteDao(baseURL, appID string, timeout time.Duration, log *slog.Logger) (*RemoteDao, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote graph url %q", baseURL)
	}
	base := u.String()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &RemoteDao{
		base:  base,
		appID: appID,
		http:  &http.Client{Timeout: timeout},
		log:   log.With(logger.Scope("graph.remote")),
	}, nil
}

func (d *RemoteDao) endpoint(path string, txID string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if txID != "" {
		query.Set(QueryTransactionID, txID)
	}
	u := d.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (d *RemoteDao) prepareRequest(ctx context.Context, method, reqURL, txID string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, apperror.NewInternal("failed to marshal request", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, r)
	if err != nil {
		return nil, apperror.NewInternal("failed to create request", err)
	}
	correlation := txID
	if correlation == "" {
		correlation = uuid.NewString()
	}
	req.Header.Set(HeaderFromAppID, d.appID)
	req.Header.Set(HeaderTransactionID, correlation)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes one call. 200 and 201 are success; any other status is
// returned verbatim with the peer's error message when it sent one.
func (d *RemoteDao) do(ctx context.Context, method, path, txID string, query url.Values, body, result any) (err error) {
	ctx, span := tracing.Start(ctx, "graph.remote."+strings.ToLower(method),
		attribute.String("gizmo.remote.path", path))
	defer func() { tracing.Finish(span, err) }()

	req, err := d.prepareRequest(ctx, method, d.endpoint(path, txID, query), txID, body)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := d.http.Do(req)
	if err != nil {
		d.log.Warn("remote graph call failed",
			slog.String("method", method),
			slog.String("path", path),
			logger.Error(err))
		return apperror.NewInternal("remote graph call failed", err)
	}
	defer resp.Body.Close()

	d.log.Debug("remote graph call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return parseErrorResponse(resp)
	}
	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := DecodeJSON(resp.Body, result); err != nil {
		return apperror.NewInternal("failed to decode remote response", err)
	}
	return nil
}

func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	var details map[string]any
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		msg = payload.Error.Message
		details = payload.Error.Details
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	appErr := apperror.FromStatus(resp.StatusCode, msg)
	if len(details) > 0 {
		appErr = appErr.WithDetails(details)
	}
	return appErr
}

func filterQuery(typ string, filter map[string]string) url.Values {
	q := url.Values{}
	for k, v := range filter {
		q.Set(k, v)
	}
	if typ != "" {
		q.Set(PropNodeType, typ)
	}
	return q
}

func (d *RemoteDao) GetVertex(ctx context.Context, id ID, typ, txID string) (Vertex, error) {
	var w WireObject
	q := url.Values{}
	if typ != "" {
		q.Set(QueryType, typ)
	}
	if err := d.do(ctx, http.MethodGet, "objects/"+url.PathEscape(id.String()), txID, q, nil, &w); err != nil {
		return Vertex{}, err
	}
	if typ != "" && w.Type != typ {
		return Vertex{}, apperror.NewNotFound(typ, id.String())
	}
	return w.vertexOrError()
}

func (d *RemoteDao) GetVertexEdges(ctx context.Context, id ID, filter map[string]string, txID string) ([]Edge, error) {
	var ws []WireRelationship
	if err := d.do(ctx, http.MethodGet, "objects/relationships/"+url.PathEscape(id.String()), txID, filterQuery("", filter), nil, &ws); err != nil {
		return nil, err
	}
	return edgesFromWire(ws)
}

func (d *RemoteDao) GetVertices(ctx context.Context, typ string, filter map[string]string, properties []string, version, txID string) ([]Vertex, error) {
	q := filterQuery(typ, filter)
	if len(properties) > 0 {
		sorted := append([]string(nil), properties...)
		sort.Strings(sorted)
		q.Set(QueryProperties, strings.Join(sorted, ","))
	}
	var ws []WireObject
	if err := d.do(ctx, http.MethodGet, "objects/filter/", txID, q, nil, &ws); err != nil {
		return nil, err
	}
	out := make([]Vertex, 0, len(ws))
	for _, w := range ws {
		v, err := w.vertexOrError()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *RemoteDao) GetEdge(ctx context.Context, id ID, typ, txID string) (Edge, error) {
	var w WireRelationship
	q := url.Values{}
	if typ != "" {
		q.Set(QueryType, typ)
	}
	if err := d.do(ctx, http.MethodGet, "relationships/"+url.PathEscape(id.String()), txID, q, nil, &w); err != nil {
		return Edge{}, err
	}
	if typ != "" && w.Type != typ {
		return Edge{}, apperror.NewNotFound(typ, id.String())
	}
	return w.edgeOrError()
}

func (d *RemoteDao) GetEdges(ctx context.Context, typ string, filter map[string]string, txID string) ([]Edge, error) {
	var ws []WireRelationship
	if err := d.do(ctx, http.MethodGet, "relationships/filter/", txID, filterQuery(typ, filter), nil, &ws); err != nil {
		return nil, err
	}
	return edgesFromWire(ws)
}

func (d *RemoteDao) AddVertex(ctx context.Context, typ string, props map[string]any, version, txID string) (Vertex, error) {
	var w WireObject
	body := WireObject{Type: typ, Properties: props}
	if err := d.do(ctx, http.MethodPost, "objects/", txID, nil, body, &w); err != nil {
		return Vertex{}, err
	}
	return w.vertexOrError()
}

func (d *RemoteDao) AddEdge(ctx context.Context, typ string, source, target Vertex, props map[string]any, version, txID string) (Edge, error) {
	var w WireRelationship
	body := WireRelationship{
		Type:       typ,
		Properties: props,
		Source:     WireObject{Key: source.id.String(), Type: source.typ},
		Target:     WireObject{Key: target.id.String(), Type: target.typ},
	}
	if err := d.do(ctx, http.MethodPost, "relationships/", txID, nil, body, &w); err != nil {
		return Edge{}, err
	}
	return w.edgeOrError()
}

func (d *RemoteDao) UpdateVertex(ctx context.Context, id ID, typ string, props map[string]any, version, txID string) (Vertex, error) {
	var w WireObject
	body := WireObject{Key: id.String(), Type: typ, Properties: props}
	if err := d.do(ctx, http.MethodPut, "objects/"+url.PathEscape(id.String()), txID, nil, body, &w); err != nil {
		return Vertex{}, err
	}
	return w.vertexOrError()
}

func (d *RemoteDao) UpdateEdge(ctx context.Context, edge Edge, txID string) (Edge, error) {
	var w WireRelationship
	body := ToWireRelationship(edge)
	if err := d.do(ctx, http.MethodPut, "relationships/"+url.PathEscape(edge.id.String()), txID, nil, body, &w); err != nil {
		return Edge{}, err
	}
	return w.edgeOrError()
}

func (d *RemoteDao) DeleteVertex(ctx context.Context, id ID, typ, txID string) error {
	q := url.Values{}
	q.Set(QueryType, typ)
	return d.do(ctx, http.MethodDelete, "objects/"+url.PathEscape(id.String()), txID, q, nil, nil)
}

func (d *RemoteDao) DeleteEdge(ctx context.Context, id ID, typ, txID string) error {
	q := url.Values{}
	q.Set(QueryType, typ)
	return d.do(ctx, http.MethodDelete, "relationships/"+url.PathEscape(id.String()), txID, q, nil, nil)
}

func (d *RemoteDao) OpenTransaction(ctx context.Context) (string, error) {
	var w WireTransaction
	if err := d.do(ctx, http.MethodPost, "transaction/", "", nil, nil, &w); err != nil {
		return "", err
	}
	if w.TransactionID == "" {
		return "", apperror.NewInternal("failed to open transaction", nil)
	}
	return w.TransactionID, nil
}

func (d *RemoteDao) CommitTransaction(ctx context.Context, txID string) error {
	return d.do(ctx, http.MethodPut, "transaction/"+url.PathEscape(txID), txID, nil, nil, nil)
}

func (d *RemoteDao) RollbackTransaction(ctx context.Context, txID string) error {
	return d.do(ctx, http.MethodDelete, "transaction/"+url.PathEscape(txID), txID, nil, nil, nil)
}

// TransactionExists treats 404 as "no such transaction" rather than an error.
func (d *RemoteDao) TransactionExists(ctx context.Context, txID string) (bool, error) {
	err := d.do(ctx, http.MethodGet, "transaction/"+url.PathEscape(txID), txID, nil, nil, nil)
	if err == nil {
		return true, nil
	}
	if apperror.StatusOf(err) == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

func (d *RemoteDao) BulkOperation(ctx context.Context, req BulkRequest) (BulkResult, error) {
	var res BulkResult
	if err := d.do(ctx, http.MethodPost, "bulk/", "", nil, req, &res); err != nil {
		return BulkResult{}, err
	}
	return res, nil
}

func (w WireObject) vertexOrError() (Vertex, error) {
	v, err := w.Vertex()
	if err != nil {
		return Vertex{}, apperror.NewInternal("malformed remote object", err)
	}
	return v, nil
}

func (w WireRelationship) edgeOrError() (Edge, error) {
	e, err := w.Edge()
	if err != nil {
		return Edge{}, apperror.NewInternal("malformed remote relationship", err)
	}
	return e, nil
}

func edgesFromWire(ws []WireRelationship) ([]Edge, error) {
	out := make([]Edge, 0, len(ws))
	for _, w := range ws {
		e, err := w.edgeOrError()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
