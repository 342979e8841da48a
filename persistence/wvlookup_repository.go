package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/sonospy/movetags/model"
)

// WVLookupRepository persists the user's configured work/virtual name ->
// albumtype band assignments, so a later run with the same scan.ini
// reuses the same albumtype numbers across regenerations.
type WVLookupRepository struct {
	sqlRepository
}

func NewWVLookupRepository(ctx context.Context, db dbx.Builder) *WVLookupRepository {
	return &WVLookupRepository{sqlRepository{ctx: ctx, db: db, tableName: "wvlookup"}}
}

func (r *WVLookupRepository) All() ([]model.WVLookup, error) {
	var rows []model.WVLookup
	err := r.queryAll(r.newSelect("wvtype", "wvnumber"), &rows)
	return rows, err
}

func (r *WVLookupRepository) Put(wvtype string, wvnumber int) error {
	var n struct {
		Cnt int `db:"cnt"`
	}
	if err := r.queryOne(r.newSelect("count(*) as cnt").Where(sq.Eq{"wvtype": wvtype}), &n); err != nil {
		return err
	}
	if n.Cnt > 0 {
		_, err := r.executeSQL(statementBuilder.Update("wvlookup").
			Set("wvnumber", wvnumber).Where(sq.Eq{"wvtype": wvtype}))
		return err
	}
	_, err := r.executeSQL(statementBuilder.Insert("wvlookup").
		Columns("wvtype", "wvnumber").Values(wvtype, wvnumber))
	return err
}
