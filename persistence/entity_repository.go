package persistence

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/sonospy/movetags/model"
)

// EntityRepository is the generic CRUD surface shared by Artist,
// Albumartist, Composer and Genre: one repository type
// parameterized by model.EntityKind instead of four near-identical
// hand-written repositories, since the four tables differ only in name
// and their single name column.
type EntityRepository struct {
	sqlRepository
	kind model.EntityKind
}

func NewEntityRepository(ctx context.Context, db dbx.Builder, kind model.EntityKind) *EntityRepository {
	return &EntityRepository{sqlRepository{ctx: ctx, db: db, tableName: kind.Table}, kind}
}

// EnsureID returns the id for name, inserting a fresh row banded under
// kind.Band if one doesn't already exist. The insert and lookup happen as
// two statements rather than one upsert, matching the NOT EXISTS-guarded
// idiom used throughout the rest of this package.
func (r *EntityRepository) EnsureID(name string) (int, error) {
	id, ok, err := r.find(name)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}
	insert := fmt.Sprintf(
		`insert into %s (%s) select {:name} where not exists (select 1 from %s where %s = {:name})`,
		r.tableName, r.kind.Column, r.tableName, r.kind.Column)
	if _, err := r.db.NewQuery(insert).WithContext(r.ctx).Bind(dbx.Params{"name": name}).Execute(); err != nil {
		return 0, err
	}
	id, ok, err = r.find(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("entity %s=%q: insert did not produce a row", r.tableName, name)
	}
	return id, nil
}

func (r *EntityRepository) find(name string) (int, bool, error) {
	var row struct {
		ID int `db:"id"`
	}
	err := r.queryOne(r.newSelect("id").Where(sq.Eq{r.kind.Column: name}), &row)
	if err == dbx.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.ID, true, nil
}

// DeleteUnreferenced removes any row in this entity table that no
// longer has a matching name in refTable.refColumn. Expressed as a
// DELETE WHERE NOT EXISTS, not a SQL foreign-key cascade, since deletion
// is conditional on being the last referrer.
func (r *EntityRepository) DeleteUnreferenced(refTable, refColumn string) error {
	query := fmt.Sprintf(
		`delete from %s where not exists (select 1 from %s where %s.%s = %s.%s)`,
		r.tableName, refTable, refTable, refColumn, r.tableName, r.kind.Column)
	_, err := r.db.NewQuery(query).WithContext(r.ctx).Execute()
	return err
}

// BumpPlay increments lastplayed/playcount for name (used when a
// rescanned track's play stats change).
func (r *EntityRepository) BumpPlay(name string, lastplayed, playcount int) error {
	_, err := r.executeSQL(statementBuilder.Update(r.tableName).
		Set("lastplayed", lastplayed).Set("playcount", playcount).
		Where(sq.Eq{r.kind.Column: name}))
	return err
}
