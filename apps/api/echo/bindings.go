package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tkimaro/shule/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses "?ordering=field1,-field2": a leading "-" means descending.
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

// intParam parses a positive integer path parameter; a bad value 404s so
// probing "/users/abc" and "/users/999999" look identical.
func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func intParams(ctx echo.Context, name1, name2 string) (int, int, error) {
	id1, err := intParam(ctx, name1)
	if err != nil {
		return 0, 0, err
	}
	id2, err := intParam(ctx, name2)
	if err != nil {
		return 0, 0, err
	}
	return id1, id2, nil
}
