package templates

import (
	"context"
	"fmt"

	"github.com/stencild/stencild/internal/authz"
	"github.com/stencild/stencild/internal/models"
	"github.com/stencild/stencild/internal/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service wraps the repository with the authorization policy. Every
// operation re-evaluates the policy against the caller's current role and
// the template's current owner/visibility; nothing is cached across calls.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new template owned by the subject. Visibility is clamped
// by role: USER-created templates are always private. Placeholders are
// derived from the content.
func (s *Service) Create(ctx context.Context, subject *models.User, name, content string, public bool) (*Template, error) {
	role := authz.ParseRole(subject.Role)
	if !authz.Can(role, true, public, authz.OpCreate) {
		return nil, &authz.AccessDeniedError{Op: authz.OpCreate}
	}
	t := &Template{
		ID:           primitive.NewObjectID().Hex(),
		Name:         name,
		Content:      content,
		OwnerID:      subject.ID,
		Public:       authz.ClampVisibility(role, public),
		Placeholders: render.ExtractPlaceholders(content),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

// Get returns the template when the subject may read it.
func (s *Service) Get(ctx context.Context, subject *models.User, id string) (*Template, error) {
	return s.authorized(ctx, subject, id, authz.OpRead)
}

// List returns the subject's visible templates: everything for admins,
// owned plus public (deduplicated) for everyone else.
func (s *Service) List(ctx context.Context, subject *models.User) ([]*Template, error) {
	if authz.ListsAll(authz.ParseRole(subject.Role)) {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListVisibleTo(ctx, subject.ID)
}

// Update modifies name, content and/or visibility. Only the owner or an
// admin may update; a content change recomputes the placeholder list, and
// the USER-role visibility clamp applies here as on create so an owner
// cannot publish a template their role forbids.
func (s *Service) Update(ctx context.Context, subject *models.User, id string, name, content *string, public *bool) (*Template, error) {
	t, err := s.authorized(ctx, subject, id, authz.OpUpdate)
	if err != nil {
		return nil, err
	}
	if name != nil {
		t.Name = *name
	}
	if content != nil {
		t.Content = *content
		t.Placeholders = render.ExtractPlaceholders(*content)
	}
	if public != nil {
		t.Public = authz.ClampVisibility(authz.ParseRole(subject.Role), *public)
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

// Delete removes the template. Only the owner or an admin may delete.
func (s *Service) Delete(ctx context.Context, subject *models.User, id string) error {
	if _, err := s.authorized(ctx, subject, id, authz.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Render expands the template against data. Requires read permission;
// structurally invalid markup surfaces as *render.SyntaxError.
func (s *Service) Render(ctx context.Context, subject *models.User, id string, data map[string]any) (string, error) {
	t, err := s.authorized(ctx, subject, id, authz.OpRender)
	if err != nil {
		return "", err
	}
	return render.Render(t.Content, data)
}

// authorized loads the template and applies the policy for op. NotFound and
// AccessDenied stay distinct so callers can map them to different failures.
func (s *Service) authorized(ctx context.Context, subject *models.User, id string, op authz.Operation) (*Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role := authz.ParseRole(subject.Role)
	if !authz.Can(role, t.OwnerID == subject.ID, t.Public, op) {
		return nil, &authz.AccessDeniedError{Op: op, TemplateID: id}
	}
	return t, nil
}
