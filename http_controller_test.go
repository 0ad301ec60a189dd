package blog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-blog"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakePostsRepo struct {
	blog.Posts
	store map[uuid.UUID]*blog.Post
}

func newFakePostsRepo(posts ...*blog.Post) *fakePostsRepo {
	repo := &fakePostsRepo{store: map[uuid.UUID]*blog.Post{}}
	for _, post := range posts {
		repo.store[post.ID] = post
	}
	return repo
}

func (f *fakePostsRepo) Create(ctx context.Context, record *blog.Post, criteria ...repository.InsertCriteria) (*blog.Post, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.store[record.ID] = record
	return record, nil
}

func (f *fakePostsRepo) GetWithRelations(ctx context.Context, id uuid.UUID) (*blog.Post, error) {
	if record, ok := f.store[id]; ok {
		return record, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakePostsRepo) List(ctx context.Context, criteria blog.ListPostsCriteria) ([]*blog.Post, error) {
	records := []*blog.Post{}
	for _, record := range f.store {
		records = append(records, record)
	}
	return records, nil
}

func (f *fakePostsRepo) Update(ctx context.Context, record *blog.Post, criteria ...repository.UpdateCriteria) (*blog.Post, error) {
	f.store[record.ID] = record
	return record, nil
}

func (f *fakePostsRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.store[id]; !ok {
		return repository.NewRecordNotFound()
	}
	delete(f.store, id)
	return nil
}

type fakeCommentsRepo struct {
	blog.Comments
	store map[uuid.UUID]*blog.Comment
}

func newFakeCommentsRepo(comments ...*blog.Comment) *fakeCommentsRepo {
	repo := &fakeCommentsRepo{store: map[uuid.UUID]*blog.Comment{}}
	for _, comment := range comments {
		repo.store[comment.ID] = comment
	}
	return repo
}

func (f *fakeCommentsRepo) Create(ctx context.Context, record *blog.Comment, criteria ...repository.InsertCriteria) (*blog.Comment, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.store[record.ID] = record
	return record, nil
}

func (f *fakeCommentsRepo) GetWithRelations(ctx context.Context, id uuid.UUID) (*blog.Comment, error) {
	if record, ok := f.store[id]; ok {
		return record, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeCommentsRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]*blog.Comment, error) {
	records := []*blog.Comment{}
	for _, record := range f.store {
		if record.PostID == postID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fakeCommentsRepo) Update(ctx context.Context, record *blog.Comment, criteria ...repository.UpdateCriteria) (*blog.Comment, error) {
	f.store[record.ID] = record
	return record, nil
}

func (f *fakeCommentsRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.store[id]; !ok {
		return repository.NewRecordNotFound()
	}
	delete(f.store, id)
	return nil
}

type controllerFixture struct {
	app      *fiber.App
	auther   *MockAuthenticator
	posts    *fakePostsRepo
	comments *fakeCommentsRepo
	users    *fakeUsersRepo
	owner    testIdentity
	other    testIdentity
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	fixture := &controllerFixture{
		auther:   new(MockAuthenticator),
		posts:    newFakePostsRepo(),
		comments: newFakeCommentsRepo(),
		users:    &fakeUsersRepo{},
		owner:    testIdentity{id: uuid.NewString(), username: "owner"},
		other:    testIdentity{id: uuid.NewString(), username: "other"},
	}

	fixture.auther.On("Authenticate", mock.Anything, "owner-token").
		Return(fixture.owner, nil)
	fixture.auther.On("Authenticate", mock.Anything, "other-token").
		Return(fixture.other, nil)
	fixture.auther.On("Authenticate", mock.Anything, mock.Anything).
		Return(nil, blog.ErrMissingCredential)

	cfg := tokenConfig(time.Minute)

	guard, err := blog.NewHTTPAuthenticator(fixture.auther, cfg)
	require.NoError(t, err)

	repo := &fakeRepoManager{
		users:    fixture.users,
		posts:    fixture.posts,
		comments: fixture.comments,
	}

	fixture.app = fiber.New()
	blog.RegisterBlogRoutes(fixture.app,
		blog.WithControllerRepo(repo),
		blog.WithControllerAuth(fixture.auther, guard),
		blog.WithControllerContextKey(cfg.GetContextKey()),
	)

	return fixture
}

func jsonRequest(t *testing.T, app *fiber.App, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// no timeout: registration hashes at full bcrypt cost in non-race builds
	res, err := app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]any{}
	if res.StatusCode != fiber.StatusNoContent {
		_ = json.NewDecoder(res.Body).Decode(&decoded)
	}

	return res.StatusCode, decoded
}

func TestRegisterEndpoint(t *testing.T) {
	fixture := newControllerFixture(t)

	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{
			name: "Valid registration",
			payload: map[string]any{
				"username": "sam",
				"email":    "sam@example.com",
				"password": "password123",
			},
			wantStatus: fiber.StatusCreated,
		},
		{
			name: "Valid registration with phone",
			payload: map[string]any{
				"username": "pepe",
				"email":    "pepe@example.com",
				"password": "password123",
				"phone":    "+14155552671",
			},
			wantStatus: fiber.StatusCreated,
		},
		{
			name: "Password below minimum length",
			payload: map[string]any{
				"username": "sam",
				"email":    "sam@example.com",
				"password": "short",
			},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name: "Invalid email",
			payload: map[string]any{
				"username": "sam",
				"email":    "not-an-email",
				"password": "password123",
			},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name: "Invalid phone",
			payload: map[string]any{
				"username": "sam",
				"email":    "sam@example.com",
				"password": "password123",
				"phone":    "not-a-phone",
			},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name: "Missing username",
			payload: map[string]any{
				"email":    "sam@example.com",
				"password": "password123",
			},
			wantStatus: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := jsonRequest(t, fixture.app, "POST", "/users", "", tt.payload)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	fixture := newControllerFixture(t)

	expiresAt := time.Now().Add(5 * time.Minute).UTC()
	fixture.auther.On("Login", mock.Anything, "sam", "password123").
		Return(&blog.Credential{
			Value:     "issued-credential",
			Type:      blog.SchemeSignedToken,
			ExpiresAt: expiresAt,
		}, nil)
	fixture.auther.On("Login", mock.Anything, "sam", "wrong").
		Return(nil, blog.ErrMismatchedHashAndPassword)

	t.Run("Successful login returns the credential", func(t *testing.T) {
		status, body := jsonRequest(t, fixture.app, "POST", "/login", "", map[string]any{
			"identifier": "sam",
			"password":   "password123",
		})

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "issued-credential", body["credential"])
		assert.Equal(t, blog.SchemeSignedToken, body["type"])
		assert.NotEmpty(t, body["expires_at"])
	})

	t.Run("Wrong password is a uniform 401", func(t *testing.T) {
		status, body := jsonRequest(t, fixture.app, "POST", "/login", "", map[string]any{
			"identifier": "sam",
			"password":   "wrong",
		})

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, false, body["success"])
	})

	t.Run("Missing fields are a 400", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "POST", "/login", "", map[string]any{
			"identifier": "sam",
		})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestPostEndpoints(t *testing.T) {
	fixture := newControllerFixture(t)

	ownerID := uuid.MustParse(fixture.owner.ID())
	post := &blog.Post{
		ID:      uuid.New(),
		Title:   "First post",
		Content: "Hello",
		OwnerID: ownerID,
	}
	fixture.posts.store[post.ID] = post

	t.Run("List is public", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "GET", "/posts", "", nil)
		assert.Equal(t, fiber.StatusOK, status)
	})

	t.Run("Show is public", func(t *testing.T) {
		status, body := jsonRequest(t, fixture.app, "GET", "/posts/"+post.ID.String(), "", nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "First post", body["title"])
	})

	t.Run("Show unknown post is 404", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "GET", "/posts/"+uuid.NewString(), "", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("Create requires authentication", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "POST", "/posts", "", map[string]any{
			"title":   "New post",
			"content": "Body",
		})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("Create", func(t *testing.T) {
		status, body := jsonRequest(t, fixture.app, "POST", "/posts", "owner-token", map[string]any{
			"title":   "New post",
			"content": "Body",
		})

		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "New post", body["title"])
		assert.Equal(t, fixture.owner.ID(), body["owner_id"])
	})

	t.Run("Create rejects empty title", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "POST", "/posts", "owner-token", map[string]any{
			"content": "Body",
		})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("Update by the owner", func(t *testing.T) {
		status, body := jsonRequest(t, fixture.app, "PUT", "/posts/"+post.ID.String(), "owner-token", map[string]any{
			"title": "Renamed",
		})

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "Renamed", body["title"])
		assert.Equal(t, "Hello", body["content"])
	})

	t.Run("Update with no fields is 400", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "PUT", "/posts/"+post.ID.String(), "owner-token", map[string]any{})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("Update by a non-owner is 403", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "PUT", "/posts/"+post.ID.String(), "other-token", map[string]any{
			"title": "Hijacked",
		})
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("Update of an unknown post is 404", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "PUT", "/posts/"+uuid.NewString(), "owner-token", map[string]any{
			"title": "Ghost",
		})
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("Delete by a non-owner is 403", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "DELETE", "/posts/"+post.ID.String(), "other-token", nil)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("Delete by the owner is 204", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "DELETE", "/posts/"+post.ID.String(), "owner-token", nil)
		assert.Equal(t, fiber.StatusNoContent, status)

		status, _ = jsonRequest(t, fixture.app, "GET", "/posts/"+post.ID.String(), "", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}

func TestCommentEndpoints(t *testing.T) {
	fixture := newControllerFixture(t)

	post := &blog.Post{
		ID:      uuid.New(),
		Title:   "Commented post",
		Content: "Hello",
		OwnerID: uuid.MustParse(fixture.owner.ID()),
	}
	fixture.posts.store[post.ID] = post

	comment := &blog.Comment{
		ID:          uuid.New(),
		Body:        "First!",
		PostID:      post.ID,
		CommenterID: uuid.MustParse(fixture.owner.ID()),
	}
	fixture.comments.store[comment.ID] = comment

	t.Run("List is public", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "GET", "/posts/"+post.ID.String()+"/comments", "", nil)
		assert.Equal(t, fiber.StatusOK, status)
	})

	t.Run("List on an unknown post is 404", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "GET", "/posts/"+uuid.NewString()+"/comments", "", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("Create requires authentication", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "POST", "/posts/"+post.ID.String()+"/comments", "", map[string]any{
			"body": "Nice",
		})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("Create", func(t *testing.T) {
		status, body := jsonRequest(t, fixture.app, "POST", "/posts/"+post.ID.String()+"/comments", "other-token", map[string]any{
			"body": "Nice",
		})

		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "Nice", body["body"])
		assert.Equal(t, fixture.other.ID(), body["commenter_id"])
	})

	t.Run("Create on an unknown post is 404", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "POST", "/posts/"+uuid.NewString()+"/comments", "other-token", map[string]any{
			"body": "Nice",
		})
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("Update by a non-author is 403", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "PUT", "/comments/"+comment.ID.String(), "other-token", map[string]any{
			"body": "Edited",
		})
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("Update by the author", func(t *testing.T) {
		status, body := jsonRequest(t, fixture.app, "PUT", "/comments/"+comment.ID.String(), "owner-token", map[string]any{
			"body": "Edited",
		})

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "Edited", body["body"])
	})

	t.Run("Delete by the author is 204", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "DELETE", "/comments/"+comment.ID.String(), "owner-token", nil)
		assert.Equal(t, fiber.StatusNoContent, status)
	})

	t.Run("Delete of an unknown comment is 404", func(t *testing.T) {
		status, _ := jsonRequest(t, fixture.app, "DELETE", "/comments/"+comment.ID.String(), "owner-token", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}
