package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/atelier/internal/collab"
	"github.com/felixgeelhaar/atelier/internal/execution"
	"github.com/felixgeelhaar/atelier/internal/projects/application/commands"
	"github.com/felixgeelhaar/atelier/internal/projects/application/queries"
	"github.com/felixgeelhaar/atelier/internal/projects/domain"
)

// Runner submits code to the external sandboxed runner.
type Runner interface {
	Run(ctx context.Context, language, source string) (execution.RunResult, error)
}

// ProjectHandler handles project, task and code file API requests.
type ProjectHandler struct {
	createProject  *commands.CreateProjectHandler
	applyToTask    *commands.ApplyToTaskHandler
	accept         *commands.AcceptApplicantHandler
	markComplete   *commands.MarkCompleteHandler
	finalize       *commands.FinalizeTaskHandler
	addFile        *commands.AddCodeFileHandler
	updateFile     *commands.UpdateCodeFileHandler
	renameFile     *commands.RenameCodeFileHandler
	deleteFile     *commands.DeleteCodeFileHandler
	getProject     *queries.GetProjectHandler
	listProjects   *queries.ListProjectsHandler
	popular        *queries.PopularProjectsHandler
	completionView *queries.GetCompletionViewHandler
	projectRepo    domain.Repository
	runner         Runner
	hub            *collab.Hub
	logger         *slog.Logger
}

// ProjectHandlerConfig holds dependencies for the project handler.
type ProjectHandlerConfig struct {
	CreateProject  *commands.CreateProjectHandler
	ApplyToTask    *commands.ApplyToTaskHandler
	Accept         *commands.AcceptApplicantHandler
	MarkComplete   *commands.MarkCompleteHandler
	Finalize       *commands.FinalizeTaskHandler
	AddFile        *commands.AddCodeFileHandler
	UpdateFile     *commands.UpdateCodeFileHandler
	RenameFile     *commands.RenameCodeFileHandler
	DeleteFile     *commands.DeleteCodeFileHandler
	GetProject     *queries.GetProjectHandler
	ListProjects   *queries.ListProjectsHandler
	Popular        *queries.PopularProjectsHandler
	CompletionView *queries.GetCompletionViewHandler
	ProjectRepo    domain.Repository
	Runner         Runner
	Hub            *collab.Hub
	Logger         *slog.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(cfg ProjectHandlerConfig) *ProjectHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ProjectHandler{
		createProject:  cfg.CreateProject,
		applyToTask:    cfg.ApplyToTask,
		accept:         cfg.Accept,
		markComplete:   cfg.MarkComplete,
		finalize:       cfg.Finalize,
		addFile:        cfg.AddFile,
		updateFile:     cfg.UpdateFile,
		renameFile:     cfg.RenameFile,
		deleteFile:     cfg.DeleteFile,
		getProject:     cfg.GetProject,
		listProjects:   cfg.ListProjects,
		popular:        cfg.Popular,
		completionView: cfg.CompletionView,
		projectRepo:    cfg.ProjectRepo,
		runner:         cfg.Runner,
		hub:            cfg.Hub,
		logger:         cfg.Logger,
	}
}

type createProjectRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      int64     `json:"budget"`
	Role        string    `json:"role"`
	Skills      []string  `json:"skills"`
	Deadline    time.Time `json:"deadline"`
}

// CreateProject handles POST /api/v1/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.createProject.Handle(r.Context(), commands.CreateProjectCommand{
		CreatedBy:   userID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Role:        req.Role,
		Skills:      req.Skills,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"project_id": result.ProjectID.String(),
		"task_id":    result.TaskID.String(),
	})
}

// GetProject handles GET /api/v1/projects/{projectID}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := h.getProject.Handle(r.Context(), queries.GetProjectQuery{ProjectID: projectID})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ListProjects handles GET /api/v1/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	query := queries.ListProjectsQuery{}
	if creator := r.URL.Query().Get("created_by"); creator != "" {
		creatorID, err := uuid.Parse(creator)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid created_by filter")
			return
		}
		query.CreatedBy = &creatorID
	}

	result, err := h.listProjects.Handle(r.Context(), query)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PopularProjects handles GET /api/v1/projects/popular
func (h *ProjectHandler) PopularProjects(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	result, err := h.popular.Handle(r.Context(), queries.PopularProjectsQuery{Limit: limit})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ApplyToTask handles POST /api/v1/tasks/{taskID}/apply
func (h *ProjectHandler) ApplyToTask(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	err := h.applyToTask.Handle(r.Context(), commands.ApplyToTaskCommand{
		TaskID: taskID,
		UserID: userID,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// AcceptApplicant handles POST /api/v1/tasks/{taskID}/applicants/{userID}/accept
func (h *ProjectHandler) AcceptApplicant(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}
	applicantID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid applicant ID")
		return
	}

	err = h.accept.Handle(r.Context(), commands.AcceptApplicantCommand{
		TaskID:      taskID,
		ApplicantID: applicantID,
		AcceptedBy:  userID,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// CompleteTask handles POST /api/v1/tasks/{taskID}/complete
func (h *ProjectHandler) CompleteTask(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	result, err := h.markComplete.Handle(r.Context(), commands.MarkCompleteCommand{
		TaskID: taskID,
		UserID: userID,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"new_completion":  result.NewCompletion,
		"finalized":       result.Finalized,
		"completed_count": result.CompletedCount,
		"collaborators":   result.Collaborators,
	})
}

// FinalizeTask handles POST /api/v1/tasks/{taskID}/finalize
func (h *ProjectHandler) FinalizeTask(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	err := h.finalize.Handle(r.Context(), commands.FinalizeTaskCommand{
		TaskID:      taskID,
		FinalizedBy: userID,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// GetCompletionView handles GET /api/v1/tasks/{taskID}/completion
func (h *ProjectHandler) GetCompletionView(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	view, err := h.completionView.Handle(r.Context(), queries.GetCompletionViewQuery{TaskID: taskID})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type createCodeFileRequest struct {
	FileName string `json:"file_name"`
}

// CreateCodeFile handles POST /api/v1/tasks/{taskID}/files
func (h *ProjectHandler) CreateCodeFile(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}
	var req createCodeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.addFile.Handle(r.Context(), commands.AddCodeFileCommand{
		TaskID:   taskID,
		UserID:   userID,
		FileName: req.FileName,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Announce(taskID.String(), collab.EventFileCreated, collab.FilePayload{
		FileID:   result.FileID.String(),
		FileName: result.FileName,
	})
	writeJSON(w, http.StatusCreated, map[string]string{
		"file_id":   result.FileID.String(),
		"file_name": result.FileName,
	})
}

type saveCodeFileRequest struct {
	Content string `json:"content"`
}

// SaveCodeFile handles PUT /api/v1/tasks/{taskID}/files/{fileID}
func (h *ProjectHandler) SaveCodeFile(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, fileID, ok := parseFileIDs(w, r)
	if !ok {
		return
	}
	var req saveCodeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.updateFile.Handle(r.Context(), commands.UpdateCodeFileCommand{
		TaskID:  taskID,
		FileID:  fileID,
		UserID:  userID,
		Content: req.Content,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type renameCodeFileRequest struct {
	FileName string `json:"file_name"`
}

// RenameCodeFile handles PATCH /api/v1/tasks/{taskID}/files/{fileID}
func (h *ProjectHandler) RenameCodeFile(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, fileID, ok := parseFileIDs(w, r)
	if !ok {
		return
	}
	var req renameCodeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.renameFile.Handle(r.Context(), commands.RenameCodeFileCommand{
		TaskID:  taskID,
		FileID:  fileID,
		UserID:  userID,
		NewName: req.FileName,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Announce(taskID.String(), collab.EventFileRenamed, collab.FilePayload{
		FileID:   fileID.String(),
		FileName: req.FileName,
	})
	writeJSON(w, http.StatusNoContent, nil)
}

// DeleteCodeFile handles DELETE /api/v1/tasks/{taskID}/files/{fileID}
func (h *ProjectHandler) DeleteCodeFile(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, fileID, ok := parseFileIDs(w, r)
	if !ok {
		return
	}

	err := h.deleteFile.Handle(r.Context(), commands.DeleteCodeFileCommand{
		TaskID: taskID,
		FileID: fileID,
		UserID: userID,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Announce(taskID.String(), collab.EventFileDeleted, collab.FilePayload{
		FileID: fileID.String(),
	})
	writeJSON(w, http.StatusNoContent, nil)
}

// RunCodeFile handles POST /api/v1/tasks/{taskID}/files/{fileID}/run
func (h *ProjectHandler) RunCodeFile(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	taskID, fileID, ok := parseFileIDs(w, r)
	if !ok {
		return
	}

	project, err := h.projectRepo.FindByTaskID(r.Context(), taskID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	task := project.FindTask(taskID)
	if task == nil {
		respondError(w, h.logger, domain.ErrTaskNotFound)
		return
	}
	if !project.IsCreator(userID) && !task.IsCollaborator(userID) {
		respondError(w, h.logger, domain.ErrNotCollaborator)
		return
	}
	file := task.FindCodeFile(fileID)
	if file == nil {
		respondError(w, h.logger, domain.ErrCodeFileNotFound)
		return
	}

	language, ok := execution.LanguageForExtension(file.Extension())
	if !ok {
		respondError(w, h.logger, execution.ErrUnsupportedLanguage)
		return
	}

	result, err := h.runner.Run(r.Context(), language, file.Content())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Announce(taskID.String(), collab.EventConsoleOutput, collab.ConsoleOutputPayload{
		Stdout: result.Stdout,
		Stderr: result.Stderr,
		Status: result.Status,
	})
	writeJSON(w, http.StatusOK, result)
}

func parseTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(r.PathValue("taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return taskID, true
}

func parseFileIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	fileID, err := uuid.Parse(r.PathValue("fileID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file ID")
		return uuid.Nil, uuid.Nil, false
	}
	return taskID, fileID, true
}
