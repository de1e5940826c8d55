package session

import (
	"context"
	"fmt"

	"inkline/models"
	"inkline/querycache"
	"inkline/utils"
	"inkline/validation"
	"inkline/visibility"
)

// NoteView is a note as the browser renders it: sanitised body and the way
// the author's name may be shown.
type NoteView struct {
	models.Note
	AuthorLink visibility.LinkMode `json:"author_link"`
}

type NoteFilter string

const (
	NotesAll     NoteFilter = "all"
	NotesPublic  NoteFilter = "public"
	NotesPrivate NoteFilter = "private"
)

func ParseNoteFilter(s string) (NoteFilter, error) {
	switch NoteFilter(s) {
	case "", NotesAll:
		return NotesAll, nil
	case NotesPublic, NotesPrivate:
		return NoteFilter(s), nil
	}
	return "", fmt.Errorf("unknown note filter %q", s)
}

func (f NoteFilter) keep(n models.Note) bool {
	switch f {
	case NotesPublic:
		return n.Public
	case NotesPrivate:
		return !n.Public
	}
	return true
}

// MyNotes lists the viewer's own notes, public and private.
func (s *Session) MyNotes(ctx context.Context, f NoteFilter) ([]NoteView, error) {
	viewer, err := s.requireViewer()
	if err != nil {
		return nil, err
	}
	notes, err := querycache.Fetch(ctx, s.cache, querycache.K(querycache.RootMyNotes), func(ctx context.Context) ([]models.Note, error) {
		return s.api.MyNotes(ctx, viewer)
	})
	if err != nil {
		return nil, s.observe(err)
	}
	out := make([]NoteView, 0, len(notes))
	for _, n := range notes {
		if f.keep(n) {
			out = append(out, NoteView{Note: sanitized(n), AuthorLink: visibility.LinkSelf})
		}
	}
	return out, nil
}

func (s *Session) CreateNote(ctx context.Context, in models.NoteInput) (*NoteView, error) {
	viewer, err := s.requireViewer()
	if err != nil {
		return nil, err
	}
	if err := validation.Note(&in); err != nil {
		return nil, err
	}
	n, err := s.api.CreateNote(ctx, in, viewer)
	if err != nil {
		return nil, s.observe(err)
	}
	s.cache.Apply(querycache.NoteChanged)
	return ownView(n), nil
}

func (s *Session) UpdateNote(ctx context.Context, id models.ID, in models.NoteInput) (*NoteView, error) {
	viewer, err := s.requireViewer()
	if err != nil {
		return nil, err
	}
	if err := validation.Note(&in); err != nil {
		return nil, err
	}
	n, err := s.api.UpdateNote(ctx, id, in, viewer)
	if err != nil {
		return nil, s.observe(err)
	}
	s.cache.Apply(querycache.NoteChanged)
	return ownView(n), nil
}

func (s *Session) DeleteNote(ctx context.Context, id models.ID) error {
	if _, err := s.requireViewer(); err != nil {
		return err
	}
	if err := s.api.DeleteNote(ctx, id); err != nil {
		return s.observe(err)
	}
	s.cache.Apply(querycache.NoteChanged)
	return nil
}

func ownView(n *models.Note) *NoteView {
	if n == nil {
		return nil
	}
	return &NoteView{Note: sanitized(*n), AuthorLink: visibility.LinkSelf}
}

func sanitized(n models.Note) models.Note {
	n.Body = utils.SanitizeHTML(n.Body)
	return n
}

// noteViews keeps the notes the viewer may see and attaches author link
// modes derived from the viewer's friendships.
func (s *Session) noteViews(ctx context.Context, notes []models.Note) []NoteView {
	viewer := s.Viewer()
	var friendships []models.Friendship
	if viewer != nil {
		fs, err := s.Friendships(ctx)
		if err != nil {
			// links degrade to plain names; the notes are still shown
			s.log.Warn("friendships unavailable for author links", "error", err)
		}
		friendships = fs
	}
	visible := visibility.FilterVisible(viewer, notes)
	out := make([]NoteView, 0, len(visible))
	for _, n := range visible {
		out = append(out, NoteView{Note: sanitized(n), AuthorLink: visibility.ModeFor(viewer, friendships, n.Author)})
	}
	return out
}
