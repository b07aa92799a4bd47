package crud

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/validation"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

const (
	HeaderETag    = "ETag"
	HeaderIfMatch = "If-Match"
)

// Handler serves the inventory REST API.
type Handler struct {
	api API
}

func NewHandler(api API) *Handler {
	return &Handler{api: api}
}

func scope(c echo.Context) Scope {
	return Scope{
		Version: c.Param("version"),
		TxID:    c.QueryParam(graph.QueryTransactionID),
		IfMatch: c.Request().Header.Get(HeaderIfMatch),
	}
}

func pathID(c echo.Context) graph.ID {
	return graph.ParseID(c.Param("id"))
}

// queryFilter turns every query param except the control params into an
// equality filter.
func queryFilter(c echo.Context) map[string]string {
	out := make(map[string]string)
	for k, vs := range c.QueryParams() {
		if k == graph.QueryTransactionID || k == graph.QueryProperties {
			continue
		}
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

func queryProperties(c echo.Context) []string {
	raw := c.QueryParam(graph.QueryProperties)
	if raw == "" {
		return nil
	}
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func bindVertex(c echo.Context) (validation.VertexPayload, error) {
	var p validation.VertexPayload
	if err := graph.DecodeJSON(c.Request().Body, &p); err != nil {
		return p, apperror.NewBadRequest("invalid JSON body: " + err.Error())
	}
	graph.NormalizeNumbers(p.Properties)
	return p, nil
}

func bindEdge(c echo.Context) (validation.EdgePayload, error) {
	var p validation.EdgePayload
	if err := graph.DecodeJSON(c.Request().Body, &p); err != nil {
		return p, apperror.NewBadRequest("invalid JSON body: " + err.Error())
	}
	graph.NormalizeNumbers(p.Properties)
	return p, nil
}

func (h *Handler) vertexJSON(c echo.Context, status int, version string, res VertexResult) error {
	c.Response().Header().Set(HeaderETag, res.ETag)
	return c.JSON(status, renderVertex(version, res.Vertex, res.Edges))
}

func (h *Handler) edgeJSON(c echo.Context, status int, version string, res EdgeResult) error {
	c.Response().Header().Set(HeaderETag, res.ETag)
	return c.JSON(status, renderEdge(version, res.Edge))
}

// GetVertex handles GET /services/inventory/:version/:type/:id
func (h *Handler) GetVertex(c echo.Context) error {
	sc := scope(c)
	res, err := h.api.GetVertex(c.Request().Context(), sc, c.Param("type"), pathID(c))
	if err != nil {
		return err
	}
	return h.vertexJSON(c, http.StatusOK, sc.Version, res)
}

// GetVertices handles GET /services/inventory/:version/:type
func (h *Handler) GetVertices(c echo.Context) error {
	sc := scope(c)
	vs, err := h.api.GetVertices(c.Request().Context(), sc, c.Param("type"), queryFilter(c), queryProperties(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, renderVertices(sc.Version, vs))
}

// AddVertex handles POST /services/inventory/:version/:type
func (h *Handler) AddVertex(c echo.Context) error {
	p, err := bindVertex(c)
	if err != nil {
		return err
	}
	sc := scope(c)
	res, err := h.api.AddVertex(c.Request().Context(), sc, c.Param("type"), p)
	if err != nil {
		return err
	}
	return h.vertexJSON(c, http.StatusCreated, sc.Version, res)
}

// UpdateVertex handles PUT /services/inventory/:version/:type/:id
func (h *Handler) UpdateVertex(c echo.Context) error {
	p, err := bindVertex(c)
	if err != nil {
		return err
	}
	sc := scope(c)
	res, err := h.api.UpdateVertex(c.Request().Context(), sc, c.Param("type"), pathID(c), p)
	if err != nil {
		return err
	}
	return h.vertexJSON(c, http.StatusOK, sc.Version, res)
}

// PatchVertex handles PATCH /services/inventory/:version/:type/:id
func (h *Handler) PatchVertex(c echo.Context) error {
	p, err := bindVertex(c)
	if err != nil {
		return err
	}
	sc := scope(c)
	res, err := h.api.PatchVertex(c.Request().Context(), sc, c.Param("type"), pathID(c), p)
	if err != nil {
		return err
	}
	return h.vertexJSON(c, http.StatusOK, sc.Version, res)
}

// DeleteVertex handles DELETE /services/inventory/:version/:type/:id
func (h *Handler) DeleteVertex(c echo.Context) error {
	if err := h.api.DeleteVertex(c.Request().Context(), scope(c), c.Param("type"), pathID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetEdge handles GET /services/inventory/relationships/:version/:type/:id
func (h *Handler) GetEdge(c echo.Context) error {
	sc := scope(c)
	res, err := h.api.GetEdge(c.Request().Context(), sc, c.Param("type"), pathID(c))
	if err != nil {
		return err
	}
	return h.edgeJSON(c, http.StatusOK, sc.Version, res)
}

// GetEdges handles GET /services/inventory/relationships/:version/:type
func (h *Handler) GetEdges(c echo.Context) error {
	sc := scope(c)
	es, err := h.api.GetEdges(c.Request().Context(), sc, c.Param("type"), queryFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, renderEdges(sc.Version, es))
}

// AddEdge handles POST /services/inventory/relationships/:version/:type
func (h *Handler) AddEdge(c echo.Context) error {
	p, err := bindEdge(c)
	if err != nil {
		return err
	}
	sc := scope(c)
	res, err := h.api.AddEdge(c.Request().Context(), sc, c.Param("type"), p)
	if err != nil {
		return err
	}
	return h.edgeJSON(c, http.StatusCreated, sc.Version, res)
}

// UpdateEdge handles PUT /services/inventory/relationships/:version/:type/:id
func (h *Handler) UpdateEdge(c echo.Context) error {
	p, err := bindEdge(c)
	if err != nil {
		return err
	}
	sc := scope(c)
	res, err := h.api.UpdateEdge(c.Request().Context(), sc, c.Param("type"), pathID(c), p)
	if err != nil {
		return err
	}
	return h.edgeJSON(c, http.StatusOK, sc.Version, res)
}

// PatchEdge handles PATCH /services/inventory/relationships/:version/:type/:id
func (h *Handler) PatchEdge(c echo.Context) error {
	p, err := bindEdge(c)
	if err != nil {
		return err
	}
	sc := scope(c)
	res, err := h.api.PatchEdge(c.Request().Context(), sc, c.Param("type"), pathID(c), p)
	if err != nil {
		return err
	}
	return h.edgeJSON(c, http.StatusOK, sc.Version, res)
}

// DeleteEdge handles DELETE /services/inventory/relationships/:version/:type/:id
func (h *Handler) DeleteEdge(c echo.Context) error {
	if err := h.api.DeleteEdge(c.Request().Context(), scope(c), c.Param("type"), pathID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Bulk handles POST /services/inventory/:version/bulk
func (h *Handler) Bulk(c echo.Context) error {
	var req graph.BulkRequest
	if err := graph.DecodeJSON(c.Request().Body, &req); err != nil {
		return apperror.NewBadRequest("invalid JSON body: " + err.Error())
	}
	res, err := h.api.Bulk(c.Request().Context(), scope(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
