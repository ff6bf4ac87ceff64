package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/store"
	"github.com/gravadigital/urna-api/internal/validation"
)

// WorkspaceService maneja la consola del Super Admin: espacios, perfiles y ajustes
type WorkspaceService struct {
	store     *store.Store
	recorder  *audit.Recorder
	validator validation.WorkspaceValidation
	profiles  validation.ProfileValidation
	log       *log.Logger
}

// NewWorkspaceService crea una nueva instancia del servicio de espacios
func NewWorkspaceService(s *store.Store, rec *audit.Recorder) *WorkspaceService {
	return &WorkspaceService{
		store:     s,
		recorder:  rec,
		validator: validation.WorkspaceValidation{},
		profiles:  validation.ProfileValidation{},
		log:       logger.Service("workspaces"),
	}
}

// WorkspaceRequest representa una solicitud para crear o renombrar un espacio
type WorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

// ProfileRequest representa una solicitud para definir un perfil de administración
type ProfileRequest struct {
	ID       string `json:"id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password"`
	ImageURL string `json:"imageUrl"`
	Contact  string `json:"contact"`
}

// Summary describe un espacio en el listado de la consola
type Summary struct {
	workspace.Workspace
	Status     election.Status `json:"electionStatus"`
	HasAdmin   bool            `json:"hasAdmin"`
	Positions  int             `json:"positions"`
	Candidates int             `json:"candidates"`
	Voters     int             `json:"voters"`
	Votes      int             `json:"votes"`
}

func summarize(ws workspace.Workspace, d workspace.Data) Summary {
	return Summary{
		Workspace:  ws,
		Status:     d.ElectionStatus,
		HasAdmin:   d.AdminProfile != nil,
		Positions:  len(d.Positions),
		Candidates: len(d.Candidates),
		Voters:     len(d.Voters),
		Votes:      len(d.Votes),
	}
}

func (s Summary) hasData() bool {
	return s.Positions+s.Candidates+s.Voters+s.Votes > 0
}

// List obtiene todos los espacios con un resumen de su elección
func (s *WorkspaceService) List() []Summary {
	state := s.store.State()
	out := make([]Summary, 0, len(state.Workspaces))
	for _, ws := range state.Workspaces {
		out = append(out, summarize(ws, state.DataFor(ws.ID)))
	}
	return out
}

// Get obtiene el resumen de un espacio
func (s *WorkspaceService) Get(id string) (Summary, error) {
	state := s.store.State()
	ws, ok := state.Workspace(id)
	if !ok {
		return Summary{}, notFound("workspace", id)
	}
	return summarize(ws, state.DataFor(id)), nil
}

func nameTaken(root *workspace.AppState, name, except string) bool {
	return slices.ContainsFunc(root.Workspaces, func(ws workspace.Workspace) bool {
		return ws.ID != except && strings.EqualFold(ws.Name, name)
	})
}

// Create crea un espacio con datos por defecto
func (s *WorkspaceService) Create(actor domain.Actor, req WorkspaceRequest) (workspace.Workspace, error) {
	if err := s.validator.ValidateWorkspaceName(req.Name); err != nil {
		return workspace.Workspace{}, invalid(err)
	}

	ws := workspace.Workspace{ID: uuid.NewString(), Name: strings.TrimSpace(req.Name)}
	err := s.store.MutateRoot(func(root *workspace.AppState) error {
		if nameTaken(root, ws.Name, "") {
			return fmt.Errorf("%w: workspace %q already exists", ErrConflict, ws.Name)
		}
		root.Workspaces = append(root.Workspaces, ws)
		root.WorkspaceData[ws.ID] = workspace.DefaultData()
		return s.recorder.AppendGlobal(root, actor, domain.ActionWorkspaceCreated, fmt.Sprintf("Workspace %q (%s)", ws.Name, ws.ID))
	})
	if err != nil {
		return workspace.Workspace{}, err
	}

	s.log.Info("Workspace created", "workspace_id", ws.ID, "name", ws.Name)
	return ws, nil
}

// Rename cambia el nombre de un espacio
func (s *WorkspaceService) Rename(actor domain.Actor, id string, req WorkspaceRequest) (workspace.Workspace, error) {
	if err := s.validator.ValidateWorkspaceName(req.Name); err != nil {
		return workspace.Workspace{}, invalid(err)
	}

	var renamed workspace.Workspace
	err := s.store.MutateRoot(func(root *workspace.AppState) error {
		idx := slices.IndexFunc(root.Workspaces, func(ws workspace.Workspace) bool { return ws.ID == id })
		if idx < 0 {
			return notFound("workspace", id)
		}
		name := strings.TrimSpace(req.Name)
		if nameTaken(root, name, id) {
			return fmt.Errorf("%w: workspace %q already exists", ErrConflict, name)
		}
		previous := root.Workspaces[idx].Name
		root.Workspaces[idx].Name = name
		renamed = root.Workspaces[idx]
		return s.recorder.AppendGlobal(root, actor, domain.ActionWorkspaceUpdated, fmt.Sprintf("Workspace %s renamed from %q to %q", id, previous, name))
	})
	if err != nil {
		return workspace.Workspace{}, err
	}
	return renamed, nil
}

// Delete elimina un espacio y sus datos. Si tiene datos requiere confirmación.
func (s *WorkspaceService) Delete(actor domain.Actor, id string, confirmed bool) error {
	err := s.store.MutateRoot(func(root *workspace.AppState) error {
		ws, ok := root.Workspace(id)
		if !ok {
			return notFound("workspace", id)
		}
		if summary := summarize(ws, root.DataFor(id)); summary.hasData() && !confirmed {
			return fmt.Errorf("%w: workspace %q has %d voters and %d votes", ErrConfirmationRequired, ws.Name, summary.Voters, summary.Votes)
		}

		root.Workspaces = slices.DeleteFunc(root.Workspaces, func(w workspace.Workspace) bool { return w.ID == id })
		delete(root.WorkspaceData, id)
		return s.recorder.AppendGlobal(root, actor, domain.ActionWorkspaceDeleted, fmt.Sprintf("Workspace %q (%s)", ws.Name, ws.ID))
	})
	if err != nil {
		return err
	}

	s.log.Warn("Workspace deleted", "workspace_id", id)
	return nil
}

func (s *WorkspaceService) buildProfile(req ProfileRequest, current *profile.Profile) (profile.Profile, error) {
	if err := s.profiles.ValidateLoginID(req.ID); err != nil {
		return profile.Profile{}, invalid(err)
	}
	if err := s.profiles.ValidateName(req.Name); err != nil {
		return profile.Profile{}, invalid(err)
	}

	p := profile.Profile{
		ID:       strings.TrimSpace(req.ID),
		Name:     strings.TrimSpace(req.Name),
		Password: req.Password,
		ImageURL: req.ImageURL,
		Contact:  strings.TrimSpace(req.Contact),
	}
	if p.Password == "" && current != nil {
		p.Password = current.Password
	}
	if err := s.profiles.ValidatePassword(p.Password); err != nil {
		return profile.Profile{}, invalid(err)
	}
	return p, nil
}

// SetAdmin crea o reemplaza el perfil de administración de un espacio
func (s *WorkspaceService) SetAdmin(actor domain.Actor, id string, req ProfileRequest) (profile.Profile, error) {
	var saved profile.Profile
	err := s.store.MutateRoot(func(root *workspace.AppState) error {
		if _, ok := root.Workspace(id); !ok {
			return notFound("workspace", id)
		}
		data := root.DataFor(id)
		p, err := s.buildProfile(req, data.AdminProfile)
		if err != nil {
			return err
		}
		if p.ID == root.SuperAdminProfile.ID {
			return invalid(fmt.Errorf("id %q is reserved", p.ID))
		}

		data.AdminProfile = &p
		root.WorkspaceData[id] = data
		saved = p
		return s.recorder.AppendGlobal(root, actor, domain.ActionAdminProfileSet, fmt.Sprintf("Admin %s for workspace %s", p.ID, id))
	})
	if err != nil {
		return profile.Profile{}, err
	}
	return saved, nil
}

// RemoveAdmin quita el perfil de administración de un espacio
func (s *WorkspaceService) RemoveAdmin(actor domain.Actor, id string) error {
	return s.store.MutateRoot(func(root *workspace.AppState) error {
		if _, ok := root.Workspace(id); !ok {
			return notFound("workspace", id)
		}
		data := root.DataFor(id)
		if data.AdminProfile == nil {
			return notFound("admin profile for workspace", id)
		}
		removed := data.AdminProfile.ID
		data.AdminProfile = nil
		root.WorkspaceData[id] = data
		return s.recorder.AppendGlobal(root, actor, domain.ActionAdminProfileClear, fmt.Sprintf("Admin %s for workspace %s", removed, id))
	})
}

// SuperAdmin obtiene el perfil global
func (s *WorkspaceService) SuperAdmin() profile.Profile {
	return s.store.State().SuperAdminProfile
}

// UpdateSuperAdmin reemplaza el perfil global; una contraseña vacía conserva la actual
func (s *WorkspaceService) UpdateSuperAdmin(actor domain.Actor, req ProfileRequest) (profile.Profile, error) {
	var saved profile.Profile
	err := s.store.MutateRoot(func(root *workspace.AppState) error {
		current := root.SuperAdminProfile
		p, err := s.buildProfile(req, &current)
		if err != nil {
			return err
		}
		root.SuperAdminProfile = p
		saved = p
		return s.recorder.AppendGlobal(root, actor, domain.ActionProfileUpdated, fmt.Sprintf("Super Admin %s", p.ID))
	})
	if err != nil {
		return profile.Profile{}, err
	}
	return saved, nil
}

// Theme obtiene el tema de la interfaz
func (s *WorkspaceService) Theme() workspace.Theme {
	return s.store.State().Theme
}

// SetTheme cambia el tema de la interfaz
func (s *WorkspaceService) SetTheme(theme workspace.Theme) error {
	if !theme.Valid() {
		return invalid(fmt.Errorf("theme must be %q or %q", workspace.ThemeLight, workspace.ThemeDark))
	}
	return s.store.MutateRoot(func(root *workspace.AppState) error {
		root.Theme = theme
		return nil
	})
}
