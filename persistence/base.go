// Package persistence is the SQL access layer for the target track
// database: one repository per table family, all built on squirrel for
// query construction and dbx for execution/scanning. There is no
// REST-filter/sort machinery here — nothing in this project serves
// albums or tracks over HTTP.
package persistence

import (
	"context"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/fatih/structs"
	"github.com/pocketbase/dbx"
)

// statementBuilder renders squirrel queries with "?" placeholders; they
// are rewritten to dbx's named {:pN} form before execution, since dbx's
// NewQuery only binds named parameters.
var statementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// sqlRepository is the shared state every table-family repository embeds.
type sqlRepository struct {
	ctx       context.Context
	db        dbx.Builder
	tableName string
}

func (r *sqlRepository) newSelect(columns ...string) sq.SelectBuilder {
	return statementBuilder.Select(columns...).From(r.tableName)
}

// toDbxQuery builds b, rewrites its "?" placeholders to dbx's {:pN} form
// and returns a bound *dbx.Query ready to run.
func (r *sqlRepository) toDbxQuery(b sq.Sqlizer) (*dbx.Query, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	named, params := namedPlaceholders(query, args)
	return r.db.NewQuery(named).WithContext(r.ctx).Bind(params), nil
}

func (r *sqlRepository) queryAll(b sq.Sqlizer, dest interface{}) error {
	q, err := r.toDbxQuery(b)
	if err != nil {
		return err
	}
	return q.All(dest)
}

func (r *sqlRepository) queryOne(b sq.Sqlizer, dest interface{}) error {
	q, err := r.toDbxQuery(b)
	if err != nil {
		return err
	}
	return q.One(dest)
}

// executeSQL runs b (an insert/update/delete) and returns rows affected.
func (r *sqlRepository) executeSQL(b sq.Sqlizer) (int64, error) {
	q, err := r.toDbxQuery(b)
	if err != nil {
		return 0, err
	}
	res, err := q.Execute()
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// namedPlaceholders rewrites each "?" in query (in order) to "{:pN}" and
// returns the matching dbx.Params, since dbx only binds named params.
func namedPlaceholders(query string, args []interface{}) (string, dbx.Params) {
	params := dbx.Params{}
	var b strings.Builder
	i := 0
	for _, r := range query {
		if r == '?' && i < len(args) {
			name := "p" + strconv.Itoa(i)
			b.WriteString("{:")
			b.WriteString(name)
			b.WriteByte('}')
			params[name] = args[i]
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), params
}

// structArgs flattens row (a struct with `structs` tags) into column-name
// keyed args for an Insert/Update SetMap call.
func structArgs(row interface{}) map[string]interface{} {
	return structs.Map(row)
}
