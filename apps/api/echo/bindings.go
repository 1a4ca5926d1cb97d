package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bolsa/core"
)

var (
	orderingParam = "ordering"
	idsParam      = "id"
)

// Ordering binds `?ordering=name,-created_at`. A leading "-" sorts descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// DestroyMultipleRequest binds `?id=a&id=b`.
type DestroyMultipleRequest struct {
	IDs []string
}

func (dr *DestroyMultipleRequest) Bind(ctx echo.Context) {
	for _, id := range ctx.QueryParams()[idsParam] {
		if id = core.CleanString(id); id != "" {
			dr.IDs = append(dr.IDs, id)
		}
	}
}
