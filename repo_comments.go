package blog

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Comments is the comments repository
type Comments interface {
	Create(ctx context.Context, record *Comment, criteria ...repository.InsertCriteria) (*Comment, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Comment, criteria ...repository.InsertCriteria) (*Comment, error)
	GetWithRelations(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*Comment, error)
	Update(ctx context.Context, record *Comment, criteria ...repository.UpdateCriteria) (*Comment, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type comments struct {
	repository.Repository[*Comment]
	db *bun.DB
}

var _ Comments = (*comments)(nil)

func NewCommentsRepository(db *bun.DB) Comments {
	repo := repository.NewRepository[*Comment](db, repository.ModelHandlers[*Comment]{
		NewRecord: func() *Comment { return &Comment{} },
		GetID: func(c *Comment) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Comment, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &comments{
		Repository: repo,
		db:         db,
	}
}

func (a *comments) Create(ctx context.Context, record *Comment, criteria ...repository.InsertCriteria) (*Comment, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *comments) CreateTx(ctx context.Context, tx bun.IDB, record *Comment, criteria ...repository.InsertCriteria) (*Comment, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *comments) GetWithRelations(ctx context.Context, id uuid.UUID) (*Comment, error) {
	record := &Comment{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Commenter").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *comments) ListByPost(ctx context.Context, postID uuid.UUID) ([]*Comment, error) {
	records := []*Comment{}

	err := a.db.NewSelect().
		Model(&records).
		Relation("Commenter").
		Where("?TableAlias.post_id = ?", postID).
		Order("cmt.created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *comments) Update(ctx context.Context, record *Comment, criteria ...repository.UpdateCriteria) (*Comment, error) {
	if len(criteria) == 0 && record != nil {
		criteria = []repository.UpdateCriteria{
			repository.UpdateByID(record.ID.String()),
		}
	}
	return a.Repository.UpdateTx(ctx, a.db, record, criteria...)
}

func (a *comments) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Comment)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}
