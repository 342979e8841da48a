package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/sonospy/movetags/model"
)

// ParamsRepository reads and advances the single global progress row
// tracking how far the synchronizer has gotten.
type ParamsRepository struct {
	sqlRepository
}

func NewParamsRepository(ctx context.Context, db dbx.Builder) *ParamsRepository {
	return &ParamsRepository{sqlRepository{ctx: ctx, db: db, tableName: "params"}}
}

func (r *ParamsRepository) Get() (model.Params, error) {
	var p model.Params
	err := r.queryOne(r.newSelect("key", "lastmodified", "lastscanstamp", "lastscanid",
		"use_albumartist", "show_duplicates", "album_identification").Where(sq.Eq{"key": "1"}), &p)
	return p, err
}

// Advance bumps lastscanstamp/lastscanid once a batch commits cleanly.
func (r *ParamsRepository) Advance(lastscanstamp, lastscanid int) error {
	_, err := r.executeSQL(statementBuilder.Update("params").
		Set("lastscanstamp", lastscanstamp).
		Set("lastscanid", lastscanid).
		Where(sq.Eq{"key": "1"}))
	return err
}
