package blog

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListPostsCriteria narrows and pages the post listing
type ListPostsCriteria struct {
	Search string
	Limit  int
	Offset int
}

// Posts is the posts repository
type Posts interface {
	Create(ctx context.Context, record *Post, criteria ...repository.InsertCriteria) (*Post, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Post, criteria ...repository.InsertCriteria) (*Post, error)
	GetWithRelations(ctx context.Context, id uuid.UUID) (*Post, error)
	List(ctx context.Context, criteria ListPostsCriteria) ([]*Post, error)
	Update(ctx context.Context, record *Post, criteria ...repository.UpdateCriteria) (*Post, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var _ Posts = (*posts)(nil)

func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (a *posts) Create(ctx context.Context, record *Post, criteria ...repository.InsertCriteria) (*Post, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *posts) CreateTx(ctx context.Context, tx bun.IDB, record *Post, criteria ...repository.InsertCriteria) (*Post, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// GetWithRelations loads a post together with its owner and comment thread
func (a *posts) GetWithRelations(ctx context.Context, id uuid.UUID) (*Post, error) {
	record := &Post{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Owner").
		Relation("Comments").
		Relation("Comments.Commenter").
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

func (a *posts) List(ctx context.Context, criteria ListPostsCriteria) ([]*Post, error) {
	records := []*Post{}

	q := a.db.NewSelect().
		Model(&records).
		Relation("Owner").
		Order("pst.created_at DESC")

	if search := strings.TrimSpace(criteria.Search); search != "" {
		q = q.Where("?TableAlias.title LIKE ?", "%"+search+"%")
	}

	if criteria.Limit > 0 {
		q = q.Limit(criteria.Limit)
	}

	if criteria.Offset > 0 {
		q = q.Offset(criteria.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *posts) Update(ctx context.Context, record *Post, criteria ...repository.UpdateCriteria) (*Post, error) {
	if len(criteria) == 0 && record != nil {
		criteria = []repository.UpdateCriteria{
			repository.UpdateByID(record.ID.String()),
		}
	}
	return a.Repository.UpdateTx(ctx, a.db, record, criteria...)
}

func (a *posts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Post)(nil)).
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
