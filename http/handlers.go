// http/handlers.go
package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/vinizap/studydock/domain"
	"github.com/vinizap/studydock/notify"
	"github.com/vinizap/studydock/search"
	"github.com/vinizap/studydock/store"
)

const toastKeepAlive = 15 * time.Second

type Folders interface {
	List() []domain.Folder
	Add(ctx context.Context, name string) domain.Folder
	Delete(ctx context.Context, id string) bool
	Select(id string)
	Selected() (string, bool)
}

type Notes interface {
	List() []domain.Note
	ByFolder(folderID string) []domain.Note
	Get(id string) (domain.Note, bool)
	Add(ctx context.Context, title, content, folderID string) domain.Note
	Update(ctx context.Context, id, title, content string) (domain.Note, error)
	Delete(ctx context.Context, id string) error
	Err() string
}

// Readiness reports whether the storage backend can serve requests.
type Readiness interface {
	Ready(ctx context.Context) bool
}

type Server struct {
	folders Folders
	notes   Notes
	relay   *notify.Relay
	hub     *notify.Hub
	ready   Readiness
	log     zerolog.Logger
}

func NewServer(folders Folders, notes Notes, relay *notify.Relay, hub *notify.Hub, ready Readiness, log zerolog.Logger) *Server {
	return &Server{
		folders: folders,
		notes:   notes,
		relay:   relay,
		hub:     hub,
		ready:   ready,
		log:     log.With().Str("component", "http").Logger(),
	}
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func (s *Server) HandleHealth(c *fiber.Ctx) error {
	ready := s.ready.Ready(c.UserContext())
	status := fiber.StatusOK
	if !ready {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"ready": ready,
		"error": s.notes.Err(),
	})
}

func (s *Server) HandleFolders(c *fiber.Ctx) error {
	return c.JSON(s.folders.List())
}

func (s *Server) HandleCreateFolder(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Folder name required")
	}

	folder := s.folders.Add(c.UserContext(), name)
	s.relay.Success(fmt.Sprintf("Folder %q created", name))
	return c.Status(fiber.StatusCreated).JSON(folder)
}

func (s *Server) HandleDeleteFolder(c *fiber.Ctx) error {
	id := c.Params("id")
	if !s.folders.Delete(c.UserContext(), id) {
		return errorJSON(c, fiber.StatusNotFound, "Folder not found")
	}
	s.relay.Info("Folder deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

type selection struct {
	FolderID *string `json:"folderId"`
}

func (s *Server) HandleSelection(c *fiber.Ctx) error {
	var sel selection
	if id, ok := s.folders.Selected(); ok {
		sel.FolderID = &id
	}
	return c.JSON(sel)
}

func (s *Server) HandleSelect(c *fiber.Ctx) error {
	var sel selection
	if err := c.BodyParser(&sel); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	id := ""
	if sel.FolderID != nil {
		id = *sel.FolderID
	}
	s.folders.Select(id)
	return s.HandleSelection(c)
}

func (s *Server) HandleNotes(c *fiber.Ctx) error {
	if folder := c.Query("folder"); folder != "" {
		return c.JSON(s.notes.ByFolder(folder))
	}
	return c.JSON(s.notes.List())
}

func (s *Server) HandleGetNote(c *fiber.Ctx) error {
	note, ok := s.notes.Get(c.Params("id"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Note not found")
	}
	return c.JSON(note)
}

func (s *Server) HandleCreateNote(c *fiber.Ctx) error {
	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		FolderID string `json:"folderId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	note := s.notes.Add(c.UserContext(), req.Title, req.Content, req.FolderID)
	s.reportSave("Note created")
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (s *Server) HandleUpdateNote(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	note, err := s.notes.Update(c.UserContext(), c.Params("id"), req.Title, req.Content)
	if errors.Is(err, store.ErrNoteNotFound) {
		s.relay.Error("Note not found")
		return errorJSON(c, fiber.StatusNotFound, "Note not found")
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	s.reportSave("Note saved")
	return c.JSON(note)
}

func (s *Server) HandleDeleteNote(c *fiber.Ctx) error {
	err := s.notes.Delete(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNoteNotFound) {
		s.relay.Error("Note not found")
		return errorJSON(c, fiber.StatusNotFound, "Note not found")
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	s.relay.Info("Note deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// reportSave relays success, or the store's error if the last save failed.
func (s *Server) reportSave(success string) {
	if msg := s.notes.Err(); msg != "" {
		s.relay.Warning(msg)
		return
	}
	s.relay.Success(success)
}

// HandleSearch filters immediately; clients debounce their own input.
func (s *Server) HandleSearch(c *fiber.Ctx) error {
	return c.JSON(search.Run(s.notes.List(), s.folders.List(), c.Query("q")))
}

// HandleToasts streams relayed toasts as server-sent events.
func (s *Server) HandleToasts(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	toasts, cancel := s.hub.Subscribe()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		keepAlive := time.NewTicker(toastKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case t, ok := <-toasts:
				if !ok {
					return
				}
				data, err := json.Marshal(t)
				if err != nil {
					s.log.Error().Err(err).Msg("encode toast")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", t.Level, data)
			case <-keepAlive.C:
				w.WriteString(": ping\n\n")
			}
			// A failed flush means the client went away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}
