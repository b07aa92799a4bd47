package graph

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// PeerPrefix is where the peer API is mounted.
const PeerPrefix = "/graph/v1"

// PeerHandler serves the object/relationship API RemoteDao speaks, backed by
// any Dao. A gateway on the embedded store can thus back another gateway.
type PeerHandler struct {
	dao Dao
}

func NewPeerHandler(dao Dao) *PeerHandler {
	return &PeerHandler{dao: dao}
}

// RegisterPeerRoutes mounts the peer API on e.
func RegisterPeerRoutes(e *echo.Echo, h *PeerHandler) {
	g := e.Group(PeerPrefix)

	g.POST("/objects/", h.AddObject)
	g.GET("/objects/filter/", h.QueryObjects)
	g.GET("/objects/relationships/:id", h.GetObjectRelationships)
	g.GET("/objects/:id", h.GetObject)
	g.PUT("/objects/:id", h.UpdateObject)
	g.DELETE("/objects/:id", h.DeleteObject)

	g.POST("/relationships/", h.AddRelationship)
	g.GET("/relationships/filter/", h.QueryRelationships)
	g.GET("/relationships/:id", h.GetRelationship)
	g.PUT("/relationships/:id", h.UpdateRelationship)
	g.DELETE("/relationships/:id", h.DeleteRelationship)

	g.POST("/transaction/", h.OpenTransaction)
	g.GET("/transaction/:id", h.TransactionExists)
	g.PUT("/transaction/:id", h.CommitTransaction)
	g.DELETE("/transaction/:id", h.RollbackTransaction)

	g.POST("/bulk/", h.Bulk)
}

func txParam(c echo.Context) string { return c.QueryParam(QueryTransactionID) }

// queryFilter turns query params into a filter, dropping control params.
func queryFilter(c echo.Context) map[string]string {
	out := make(map[string]string)
	for k, vs := range c.QueryParams() {
		switch k {
		case QueryTransactionID, QueryProperties, PropNodeType:
			continue
		}
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

func bind(c echo.Context, v any) error {
	if err := DecodeJSON(c.Request().Body, v); err != nil {
		return apperror.NewBadRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// GetObject handles GET /objects/:id
func (h *PeerHandler) GetObject(c echo.Context) error {
	v, err := h.dao.GetVertex(c.Request().Context(), ParseID(c.Param("id")), c.QueryParam(QueryType), txParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ToWireObject(v))
}

// QueryObjects handles GET /objects/filter/
func (h *PeerHandler) QueryObjects(c echo.Context) error {
	var props []string
	if p := c.QueryParam(QueryProperties); p != "" {
		props = strings.Split(p, ",")
	}
	vs, err := h.dao.GetVertices(c.Request().Context(), c.QueryParam(PropNodeType), queryFilter(c), props, "", txParam(c))
	if err != nil {
		return err
	}
	out := make([]WireObject, 0, len(vs))
	for _, v := range vs {
		out = append(out, ToWireObject(v))
	}
	return c.JSON(http.StatusOK, out)
}

// GetObjectRelationships handles GET /objects/relationships/:id
func (h *PeerHandler) GetObjectRelationships(c echo.Context) error {
	filter := queryFilter(c)
	if t := c.QueryParam(PropNodeType); t != "" {
		filter[PropNodeType] = t
	}
	es, err := h.dao.GetVertexEdges(c.Request().Context(), ParseID(c.Param("id")), filter, txParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wireRelationships(es))
}

// AddObject handles POST /objects/
func (h *PeerHandler) AddObject(c echo.Context) error {
	var w WireObject
	if err := bind(c, &w); err != nil {
		return err
	}
	v, err := h.dao.AddVertex(c.Request().Context(), w.Type, w.Properties, "", txParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ToWireObject(v))
}

// UpdateObject handles PUT /objects/:id
func (h *PeerHandler) UpdateObject(c echo.Context) error {
	var w WireObject
	if err := bind(c, &w); err != nil {
		return err
	}
	v, err := h.dao.UpdateVertex(c.Request().Context(), ParseID(c.Param("id")), w.Type, w.Properties, "", txParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ToWireObject(v))
}

// DeleteObject handles DELETE /objects/:id
func (h *PeerHandler) DeleteObject(c echo.Context) error {
	if err := h.dao.DeleteVertex(c.Request().Context(), ParseID(c.Param("id")), c.QueryParam(QueryType), txParam(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// GetRelationship handles GET /relationships/:id
func (h *PeerHandler) GetRelationship(c echo.Context) error {
	e, err := h.dao.GetEdge(c.Request().Context(), ParseID(c.Param("id")), c.QueryParam(QueryType), txParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ToWireRelationship(e))
}

// QueryRelationships handles GET /relationships/filter/
func (h *PeerHandler) QueryRelationships(c echo.Context) error {
	es, err := h.dao.GetEdges(c.Request().Context(), c.QueryParam(PropNodeType), queryFilter(c), txParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wireRelationships(es))
}

// AddRelationship handles POST /relationships/
func (h *PeerHandler) AddRelationship(c echo.Context) error {
	var w WireRelationship
	if err := bind(c, &w); err != nil {
		return err
	}
	src, err := w.Source.Vertex()
	if err != nil {
		return apperror.NewBadRequest("source: " + err.Error())
	}
	tgt, err := w.Target.Vertex()
	if err != nil {
		return apperror.NewBadRequest("target: " + err.Error())
	}
	e, err := h.dao.AddEdge(c.Request().Context(), w.Type, src, tgt, w.Properties, "", txParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ToWireRelationship(e))
}

// UpdateRelationship handles PUT /relationships/:id
func (h *PeerHandler) UpdateRelationship(c echo.Context) error {
	var w WireRelationship
	if err := bind(c, &w); err != nil {
		return err
	}
	w.Key = c.Param("id")
	e, err := w.Edge()
	if err != nil {
		return apperror.NewBadRequest(err.Error())
	}
	updated, err := h.dao.UpdateEdge(c.Request().Context(), e, txParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ToWireRelationship(updated))
}

// DeleteRelationship handles DELETE /relationships/:id
func (h *PeerHandler) DeleteRelationship(c echo.Context) error {
	if err := h.dao.DeleteEdge(c.Request().Context(), ParseID(c.Param("id")), c.QueryParam(QueryType), txParam(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// OpenTransaction handles POST /transaction/
func (h *PeerHandler) OpenTransaction(c echo.Context) error {
	txID, err := h.dao.OpenTransaction(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, WireTransaction{TransactionID: txID})
}

// TransactionExists handles GET /transaction/:id
func (h *PeerHandler) TransactionExists(c echo.Context) error {
	ok, err := h.dao.TransactionExists(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound("transaction", c.Param("id"))
	}
	return c.JSON(http.StatusOK, WireTransaction{TransactionID: c.Param("id")})
}

// CommitTransaction handles PUT /transaction/:id
func (h *PeerHandler) CommitTransaction(c echo.Context) error {
	if err := h.dao.CommitTransaction(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// RollbackTransaction handles DELETE /transaction/:id
func (h *PeerHandler) RollbackTransaction(c echo.Context) error {
	if err := h.dao.RollbackTransaction(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// Bulk handles POST /bulk/
func (h *PeerHandler) Bulk(c echo.Context) error {
	var req BulkRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.dao.BulkOperation(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func wireRelationships(es []Edge) []WireRelationship {
	out := make([]WireRelationship, 0, len(es))
	for _, e := range es {
		out = append(out, ToWireRelationship(e))
	}
	return out
}
