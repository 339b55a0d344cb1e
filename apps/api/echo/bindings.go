package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/signbank/signbank/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// listPage is the gloss list page requested by the `page` and `paginate_by` params.
type listPage struct {
	Page       string
	PaginateBy int
}

func (lp *listPage) Bind(ctx echo.Context) {
	lp.Page = ctx.QueryParam("page")
	if n, err := strconv.Atoi(ctx.QueryParam("paginate_by")); err == nil && n > 0 {
		lp.PaginateBy = n
	}
}
