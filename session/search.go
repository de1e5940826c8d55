package session

import (
	"context"

	"inkline/models"
	"inkline/querycache"
	"inkline/relationship"
	"inkline/validation"
)

// SearchRow is one people-search hit labelled from the viewer's side.
type SearchRow struct {
	ID           models.ID             `json:"id"`
	FirstName    string                `json:"first_name"`
	LastName     string                `json:"last_name"`
	Label        relationship.Label    `json:"label"`
	FriendshipID models.ID             `json:"friendship_id,omitempty"`
	Actions      []relationship.Action `json:"actions"`
	Busy         bool                  `json:"busy"`
}

type SearchResult struct {
	Query string      `json:"q"`
	Rows  []SearchRow `json:"rows"`
	// Superseded is set when a later search was issued before this one
	// finished; the browser should keep showing the later one.
	Superseded bool `json:"superseded"`
}

// Search looks people up by name. Queries shorter than two characters
// return no rows without calling the backend. Only the most recently
// issued search is kept as the displayed result.
func (s *Session) Search(ctx context.Context, q string) (*SearchResult, error) {
	viewer, err := s.requireViewer()
	if err != nil {
		return nil, err
	}
	ticket := s.search.Begin()
	q, ok := validation.SearchQuery(q)
	if !ok {
		res := SearchResult{Query: q, Rows: []SearchRow{}}
		s.search.Commit(ticket, res)
		return &res, nil
	}

	hits, err := querycache.Fetch(ctx, s.cache, querycache.K(querycache.RootUserSearch, q), func(ctx context.Context) ([]models.SearchResult, error) {
		return s.api.SearchUsers(ctx, q)
	})
	if err != nil {
		return nil, s.observe(err)
	}
	friendships, err := s.Friendships(ctx)
	if err != nil {
		s.log.Warn("friendships unavailable for search labels", "error", err)
	}

	res := SearchResult{Query: q, Rows: make([]SearchRow, 0, len(hits))}
	for _, h := range hits {
		if h.ID == viewer.ID {
			continue
		}
		res.Rows = append(res.Rows, s.searchRow(viewer, friendships, err == nil, h))
	}
	if !s.search.Commit(ticket, res) {
		res.Superseded = true
	}
	return &res, nil
}

// searchRow labels a hit from the cached friendship list, falling back to
// the label the backend attached when the list could not be loaded.
func (s *Session) searchRow(viewer *models.User, friendships []models.Friendship, haveList bool, h models.SearchResult) SearchRow {
	row := SearchRow{ID: h.ID, FirstName: h.FirstName, LastName: h.LastName, FriendshipID: h.FriendshipID}
	if haveList {
		row.Label = relationship.LabelFor(viewer.ID, friendships, h.ID)
		row.FriendshipID = 0
		if f, ok := relationship.Find(viewer.ID, friendships, h.ID); ok {
			row.FriendshipID = f.ID
		}
	} else if l, err := relationship.ParseLabel(h.ServerRelationship); err == nil {
		row.Label = l
	}
	row.Actions = relationship.Actions(row.Label)
	row.Busy = s.busy.IsBusy(userKey(h.ID))
	if row.FriendshipID != 0 {
		row.Busy = row.Busy || s.busy.IsBusy(friendshipKey(row.FriendshipID))
	}
	return row
}

// CurrentSearch is the result the people search currently displays.
func (s *Session) CurrentSearch() (SearchResult, bool) {
	return s.search.Get()
}
