package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/jwalitptl/clinic-directory/internal/model"
)

// Composer builds the clinic listing and search statements for one SQL
// dialect. Every filter value travels as a bound parameter.
type Composer struct {
	dialect goqu.DialectWrapper
}

// NewComposer maps a database driver name onto its goqu dialect.
func NewComposer(driver string) (*Composer, error) {
	var name string
	switch driver {
	case "postgres":
		name = "postgres"
	case "sqlite", "sqlite3":
		name = "sqlite3"
	default:
		return nil, fmt.Errorf("no query dialect for driver %q", driver)
	}
	return &Composer{dialect: goqu.Dialect(name)}, nil
}

func (c *Composer) base() *goqu.SelectDataset {
	return c.dialect.
		From(goqu.T("clinics").As("c")).
		Prepared(true).
		Select(
			goqu.I("c.id"),
			goqu.I("c.clinic_name"),
			goqu.I("c.business_name"),
			goqu.I("c.street_address"),
			goqu.I("c.city"),
			goqu.I("c.state"),
			goqu.I("c.country"),
			goqu.I("c.zip_code"),
			goqu.I("c.latitude"),
			goqu.I("c.longitude"),
			goqu.I("c.date_created"),
			goqu.I("s.id").As("service_id"),
			goqu.I("s.name").As("service_name"),
			goqu.I("s.code").As("service_code"),
			goqu.I("s.description").As("service_description"),
			goqu.I("cs.price").As("service_price"),
			goqu.I("cs.is_active").As("service_is_active"),
		).
		LeftJoin(
			goqu.T("clinic_services").As("cs"),
			goqu.On(goqu.I("c.id").Eq(goqu.I("cs.clinic_id"))),
		).
		LeftJoin(
			goqu.T("services").As("s"),
			goqu.On(goqu.I("cs.service_id").Eq(goqu.I("s.id"))),
		)
}

func ordered(ds *goqu.SelectDataset) *goqu.SelectDataset {
	return ds.Order(
		goqu.I("c.date_created").Desc(),
		goqu.I("c.id").Asc(),
		goqu.I("s.name").Asc(),
	)
}

// ListClinics returns the unfiltered listing: every clinic, newest first,
// including clinics without services.
func (c *Composer) ListClinics() (string, []interface{}, error) {
	return ordered(c.base()).ToSQL()
}

// BuildSearch narrows the listing by filters. Blank filters are ignored, so
// empty filters produce exactly the ListClinics statement.
func (c *Composer) BuildSearch(filters model.SearchFilters) (string, []interface{}, error) {
	ds := c.base()

	var conds []exp.Expression
	if v := strings.TrimSpace(filters.City); v != "" {
		conds = append(conds, containsFold("c.city", v))
	}
	if v := strings.TrimSpace(filters.State); v != "" {
		conds = append(conds, containsFold("c.state", v))
	}
	if v := strings.TrimSpace(filters.SearchTerm); v != "" {
		conds = append(conds, goqu.Or(
			containsFold("c.clinic_name", v),
			containsFold("c.business_name", v),
		))
	}
	if ids := ServiceIDs(filters.ServiceIDs); len(ids) > 0 {
		offering := c.dialect.
			From("clinic_services").
			Select("clinic_id").
			Where(goqu.C("service_id").In(ids))
		conds = append(conds, goqu.I("c.id").In(offering))
	}

	if len(conds) > 0 {
		ds = ds.Where(conds...)
	}
	return ordered(ds).ToSQL()
}

// containsFold matches v anywhere in col, ignoring case. LIKE wildcards in
// v are not escaped.
func containsFold(col, v string) exp.Expression {
	return goqu.Func("LOWER", goqu.I(col)).Like("%" + strings.ToLower(v) + "%")
}

// ServiceIDs trims, drops blanks and de-duplicates ids, returning them
// sorted. Ids match exactly, so case is kept.
func ServiceIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
