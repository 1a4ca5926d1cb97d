package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings keeps the orderings whose field is one of `fields`.
// Unknown fields are silently dropped so they never reach a query.
func AllowedOrderings(orderings []DBOrdering, fields ...string) []DBOrdering {
	allowed := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}
	kept := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if _, ok := allowed[ord.Field]; ok {
			kept = append(kept, ord)
		}
	}
	return kept
}
