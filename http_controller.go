package blog

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// BlogControllerRoutes collects the route paths in one place
type BlogControllerRoutes struct {
	Users    string
	Login    string
	Posts    string
	Post     string
	Comments string
	Comment  string
}

// BlogController serves the JSON API: registration, login, and the
// post/comment CRUD that sits behind the authentication guard.
type BlogController struct {
	Debug     bool
	Logger    Logger
	Repo      RepositoryManager
	Auth      Authenticator
	Guard     *RouteAuthenticator
	Registrar *RegisterUserHandler
	Routes    *BlogControllerRoutes

	contextKey string
}

type BlogControllerOption func(*BlogController) *BlogController

func WithControllerRepo(repo RepositoryManager) BlogControllerOption {
	return func(c *BlogController) *BlogController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuth(auth Authenticator, guard *RouteAuthenticator) BlogControllerOption {
	return func(c *BlogController) *BlogController {
		c.Auth = auth
		c.Guard = guard
		return c
	}
}

func WithControllerLogger(logger Logger) BlogControllerOption {
	return func(c *BlogController) *BlogController {
		c.Logger = logger
		return c
	}
}

func WithControllerContextKey(key string) BlogControllerOption {
	return func(c *BlogController) *BlogController {
		if key != "" {
			c.contextKey = key
		}
		return c
	}
}

func WithControllerDebug(debug bool) BlogControllerOption {
	return func(c *BlogController) *BlogController {
		c.Debug = debug
		return c
	}
}

func NewBlogController(opts ...BlogControllerOption) *BlogController {
	c := &BlogController{
		Logger:     defLogger{},
		contextKey: "identity",
		Routes: &BlogControllerRoutes{
			Users:    "/users",
			Login:    "/login",
			Posts:    "/posts",
			Post:     "/posts/:id",
			Comments: "/posts/:id/comments",
			Comment:  "/comments/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in blog controller...")
	}

	if c.Auth == nil || c.Guard == nil {
		panic("Missing Authenticator in blog controller...")
	}

	if c.Registrar == nil {
		c.Registrar = NewRegisterUserHandler(c.Repo)
	}

	return c
}

// RegisterBlogRoutes mounts the public and protected routes on app
func RegisterBlogRoutes(app fiber.Router, opts ...BlogControllerOption) *BlogController {
	controller := NewBlogController(opts...)

	app.Post(controller.Routes.Users, controller.RegisterUser)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Get(controller.Routes.Posts, controller.ListPosts)
	app.Get(controller.Routes.Post, controller.ShowPost)
	app.Get(controller.Routes.Comments, controller.ListComments)

	guarded := controller.Guard.ProtectedRoute()
	app.Post(controller.Routes.Posts, guarded, controller.CreatePost)
	app.Put(controller.Routes.Post, guarded, controller.UpdatePost)
	app.Delete(controller.Routes.Post, guarded, controller.DeletePost)
	app.Post(controller.Routes.Comments, guarded, controller.CreateComment)
	app.Put(controller.Routes.Comment, guarded, controller.UpdateComment)
	app.Delete(controller.Routes.Comment, guarded, controller.DeleteComment)

	return controller
}

// RegisterRequest payload
type RegisterRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Phone    string `form:"phone" json:"phone"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(3, 64),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Phone,
			validation.By(validPhoneNumber),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 0),
		),
	)
}

// validPhoneNumber accepts empty values; non-empty values must be E.164
func validPhoneNumber(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	number, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return fmt.Errorf("must be an international phone number: %w", err)
	}

	if !phonenumbers.IsValidNumber(number) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

func (a *BlogController) RegisterUser(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	phone := payload.Phone
	if phone != "" {
		if number, err := phonenumbers.Parse(phone, ""); err == nil {
			phone = phonenumbers.Format(number, phonenumbers.E164)
		}
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(payload))
	}

	user, err := a.Registrar.Execute(ctx.UserContext(), RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    phone,
		Password: payload.Password,
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryConflict {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "username or email already taken",
			})
		}
		a.Logger.Error("RegisterUser error", "error", err)
		return internalError(ctx)
	}

	return ctx.Status(fiber.StatusCreated).JSON(user)
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *BlogController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if a.Debug {
		a.Logger.Debug("login identifier: %s", print.MaybePrettyJSON(payload.Identifier))
	}

	credential, err := a.Auth.Login(ctx.UserContext(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		// corrupt hashes and store failures are our fault, not the caller's,
		// but the response body stays identical either way
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryInternal {
			a.Logger.Error("Login internal error", "error", richErr.Message, "text_code", richErr.TextCode)
		} else {
			a.Logger.Info("Login rejected", "identifier", payload.GetIdentifier())
		}
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid credentials",
		})
	}

	return ctx.JSON(fiber.Map{
		"success":    true,
		"credential": credential.Value,
		"type":       credential.Type,
		"expires_at": credential.ExpiresAt,
	})
}

// PostCreateRequest payload
type PostCreateRequest struct {
	Title   string `form:"title" json:"title"`
	Content string `form:"content" json:"content"`
}

// Validate will run validation rules
func (r PostCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Content, validation.Required),
	)
}

// PostUpdateRequest payload; at least one field must be provided
type PostUpdateRequest struct {
	Title   *string `form:"title" json:"title"`
	Content *string `form:"content" json:"content"`
}

// Validate will run validation rules
func (r PostUpdateRequest) Validate() error {
	if r.Title == nil && r.Content == nil {
		return fmt.Errorf("at least one field must be changed")
	}
	return nil
}

func (a *BlogController) ListPosts(ctx *fiber.Ctx) error {
	criteria := ListPostsCriteria{
		Search: ctx.Query("search"),
		Limit:  ctx.QueryInt("limit", 20),
		Offset: ctx.QueryInt("offset", 0),
	}

	records, err := a.Repo.Posts().List(ctx.UserContext(), criteria)
	if err != nil {
		a.Logger.Error("ListPosts error", "error", err)
		return internalError(ctx)
	}

	return ctx.JSON(records)
}

func (a *BlogController) ShowPost(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return notFound(ctx)
	}

	record, err := a.Repo.Posts().GetWithRelations(ctx.UserContext(), id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return notFound(ctx)
		}
		a.Logger.Error("ShowPost error", "error", err)
		return internalError(ctx)
	}

	return ctx.JSON(record)
}

func (a *BlogController) CreatePost(ctx *fiber.Ctx) error {
	identity, ok := a.requestIdentity(ctx)
	if !ok {
		return UnauthorizedResponse(ctx)
	}

	payload := new(PostCreateRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	ownerID, err := uuid.Parse(identity.ID())
	if err != nil {
		return UnauthorizedResponse(ctx)
	}

	record, err := a.Repo.Posts().Create(ctx.UserContext(), &Post{
		Title:   payload.Title,
		Content: payload.Content,
		OwnerID: ownerID,
	})

	if err != nil {
		a.Logger.Error("CreatePost error", "error", err)
		return internalError(ctx)
	}

	return ctx.Status(fiber.StatusCreated).JSON(record)
}

func (a *BlogController) UpdatePost(ctx *fiber.Ctx) error {
	record, errResp := a.ownedPost(ctx)
	if errResp != nil {
		return errResp(ctx)
	}

	payload := new(PostUpdateRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if payload.Title != nil {
		record.Title = *payload.Title
	}
	if payload.Content != nil {
		record.Content = *payload.Content
	}

	updated, err := a.Repo.Posts().Update(ctx.UserContext(), record)
	if err != nil {
		a.Logger.Error("UpdatePost error", "error", err)
		return internalError(ctx)
	}

	return ctx.JSON(updated)
}

func (a *BlogController) DeletePost(ctx *fiber.Ctx) error {
	record, errResp := a.ownedPost(ctx)
	if errResp != nil {
		return errResp(ctx)
	}

	if err := a.Repo.Posts().DeleteByID(ctx.UserContext(), record.ID); err != nil {
		if repository.IsRecordNotFound(err) {
			return notFound(ctx)
		}
		a.Logger.Error("DeletePost error", "error", err)
		return internalError(ctx)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// CommentCreateRequest payload
type CommentCreateRequest struct {
	Body string `form:"body" json:"body"`
}

// Validate will run validation rules
func (r CommentCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Body, validation.Required),
	)
}

// CommentUpdateRequest payload; at least one field must be provided
type CommentUpdateRequest struct {
	Body *string `form:"body" json:"body"`
}

// Validate will run validation rules
func (r CommentUpdateRequest) Validate() error {
	if r.Body == nil {
		return fmt.Errorf("at least one field must be changed")
	}
	return nil
}

func (a *BlogController) ListComments(ctx *fiber.Ctx) error {
	postID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return notFound(ctx)
	}

	if _, err := a.Repo.Posts().GetWithRelations(ctx.UserContext(), postID); err != nil {
		if repository.IsRecordNotFound(err) {
			return notFound(ctx)
		}
		a.Logger.Error("ListComments post lookup error", "error", err)
		return internalError(ctx)
	}

	records, err := a.Repo.Comments().ListByPost(ctx.UserContext(), postID)
	if err != nil {
		a.Logger.Error("ListComments error", "error", err)
		return internalError(ctx)
	}

	return ctx.JSON(records)
}

func (a *BlogController) CreateComment(ctx *fiber.Ctx) error {
	identity, ok := a.requestIdentity(ctx)
	if !ok {
		return UnauthorizedResponse(ctx)
	}

	postID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return notFound(ctx)
	}

	if _, err := a.Repo.Posts().GetWithRelations(ctx.UserContext(), postID); err != nil {
		if repository.IsRecordNotFound(err) {
			return notFound(ctx)
		}
		a.Logger.Error("CreateComment post lookup error", "error", err)
		return internalError(ctx)
	}

	payload := new(CommentCreateRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	commenterID, err := uuid.Parse(identity.ID())
	if err != nil {
		return UnauthorizedResponse(ctx)
	}

	record, err := a.Repo.Comments().Create(ctx.UserContext(), &Comment{
		Body:        payload.Body,
		PostID:      postID,
		CommenterID: commenterID,
	})

	if err != nil {
		a.Logger.Error("CreateComment error", "error", err)
		return internalError(ctx)
	}

	return ctx.Status(fiber.StatusCreated).JSON(record)
}

func (a *BlogController) UpdateComment(ctx *fiber.Ctx) error {
	record, errResp := a.ownedComment(ctx)
	if errResp != nil {
		return errResp(ctx)
	}

	payload := new(CommentUpdateRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	record.Body = *payload.Body

	updated, err := a.Repo.Comments().Update(ctx.UserContext(), record)
	if err != nil {
		a.Logger.Error("UpdateComment error", "error", err)
		return internalError(ctx)
	}

	return ctx.JSON(updated)
}

func (a *BlogController) DeleteComment(ctx *fiber.Ctx) error {
	record, errResp := a.ownedComment(ctx)
	if errResp != nil {
		return errResp(ctx)
	}

	if err := a.Repo.Comments().DeleteByID(ctx.UserContext(), record.ID); err != nil {
		if repository.IsRecordNotFound(err) {
			return notFound(ctx)
		}
		a.Logger.Error("DeleteComment error", "error", err)
		return internalError(ctx)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (a *BlogController) requestIdentity(ctx *fiber.Ctx) (Identity, bool) {
	return IdentityFromRouter(ctx, a.contextKey)
}

// ownedPost loads the addressed post and enforces the ownership convention:
// unknown resources are 404, foreign resources are 403.
func (a *BlogController) ownedPost(ctx *fiber.Ctx) (*Post, func(*fiber.Ctx) error) {
	identity, ok := a.requestIdentity(ctx)
	if !ok {
		return nil, UnauthorizedResponse
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return nil, notFound
	}

	record, err := a.Repo.Posts().GetWithRelations(ctx.UserContext(), id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound
		}
		a.Logger.Error("post lookup error", "error", err)
		return nil, internalError
	}

	if record.OwnerID.String() != identity.ID() {
		return nil, forbidden
	}

	return record, nil
}

func (a *BlogController) ownedComment(ctx *fiber.Ctx) (*Comment, func(*fiber.Ctx) error) {
	identity, ok := a.requestIdentity(ctx)
	if !ok {
		return nil, UnauthorizedResponse
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return nil, notFound
	}

	record, err := a.Repo.Comments().GetWithRelations(ctx.UserContext(), id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound
		}
		a.Logger.Error("comment lookup error", "error", err)
		return nil, internalError
	}

	if record.CommenterID.String() != identity.ID() {
		return nil, forbidden
	}

	return record, nil
}

func badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func notFound(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": "resource not found",
	})
}

func forbidden(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"message": "you do not own this resource",
	})
}

func internalError(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "internal server error",
	})
}
