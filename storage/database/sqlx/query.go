// Package sqlxrepos holds the PostgreSQL repositories, written with sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/bolsa/core"
)

// where accumulates AND-ed conditions with `?` placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// build expands `IN (?)` slices and rebinds the query for the db's driver.
func (w *where) build(db *sqlx.DB, base, orderBy string) (string, []interface{}, error) {
	q, args, err := sqlx.In(base+w.String()+orderBy, w.args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(q), args, nil
}

// orderBy renders the orderings, restricted to fields, then the fallback.
func orderBy(orderings []core.DBOrdering, fallback string, fields ...string) string {
	parts := make([]string, 0, len(orderings)+1)
	for _, ord := range core.AllowedOrderings(orderings, fields...) {
		parts = append(parts, ord.String())
	}
	parts = append(parts, fallback)
	return " ORDER BY " + strings.Join(parts, ", ")
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
