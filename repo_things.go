package things

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type things struct {
	db bun.IDB
}

var _ ThingRepository = (*things)(nil)

// NewThingsRepository returns the bun backed store. db may be a *bun.DB or
// a bun.Tx.
func NewThingsRepository(db bun.IDB) ThingRepository {
	return &things{db: db}
}

// CreateSchema creates the things table if it is missing
func CreateSchema(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*Thing)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create things table")
	}
	return nil
}

func (r *things) Save(ctx context.Context, thing *Thing) (*Thing, error) {
	if thing == nil {
		return nil, goerrors.New("thing is required", goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidThing).
			WithCode(goerrors.CodeBadRequest)
	}

	if verr := thing.Validate(); verr != nil {
		return nil, verr
	}

	if thing.IsNew() {
		return r.insert(ctx, thing)
	}

	return r.update(ctx, thing)
}

func (r *things) insert(ctx context.Context, thing *Thing) (*Thing, error) {
	if _, err := r.db.NewInsert().Model(thing).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert thing")
	}
	return thing, nil
}

func (r *things) update(ctx context.Context, thing *Thing) (*Thing, error) {
	record := &Thing{ID: thing.ID, Name: thing.Name}
	res, err := r.db.NewUpdate().
		Model(record).
		Column("name").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update thing")
	}

	if affected(res) == 0 {
		return nil, withMetadata(ErrThingNotFound, map[string]any{"id": thing.ID})
	}

	return record, nil
}

func (r *things) FindByID(ctx context.Context, id int64) (*Thing, bool, error) {
	record := &Thing{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find thing")
	}
	return record, true, nil
}

func (r *things) FindAll(ctx context.Context) ([]*Thing, error) {
	records := []*Thing{}
	err := r.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)
	if err != nil && !goerrors.Is(err, sql.ErrNoRows) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list things")
	}
	return records, nil
}

func (r *things) FindAllByID(ctx context.Context, ids []int64) ([]*Thing, error) {
	records := []*Thing{}
	if len(ids) == 0 {
		return records, nil
	}

	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Order("id ASC").
		Scan(ctx)
	if err != nil && !goerrors.Is(err, sql.ErrNoRows) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list things by id")
	}
	return records, nil
}

func (r *things) ExistsByID(ctx context.Context, id int64) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Thing)(nil)).
		Where("?TableAlias.id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check thing")
	}
	return exists, nil
}

func (r *things) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*Thing)(nil)).
		Count(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count things")
	}
	return count, nil
}

func (r *things) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*Thing)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete thing")
	}

	if affected(res) == 0 {
		return withMetadata(ErrThingNotFound, map[string]any{"id": id})
	}

	return nil
}

func (r *things) Delete(ctx context.Context, thing *Thing) error {
	if thing == nil {
		return goerrors.New("thing is required", goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidThing).
			WithCode(goerrors.CodeBadRequest)
	}
	return r.DeleteByID(ctx, thing.ID)
}

func affected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
