package session

import (
	"context"
	"errors"
	"fmt"

	"inkline/backend"
	"inkline/models"
	"inkline/querycache"
	"inkline/relationship"
)

// FriendshipEntry is a row of the manage view with its busy flag.
type FriendshipEntry struct {
	relationship.Entry
	Busy bool `json:"busy"`
}

// ActionRequest names the target by friendship id, by user id, or both.
type ActionRequest struct {
	Action       relationship.Action
	UserID       models.ID
	FriendshipID models.ID
}

type ActionResult struct {
	Action     relationship.Action `json:"action"`
	UserID     models.ID           `json:"user_id"`
	Label      relationship.Label  `json:"label"`
	Friendship *models.Friendship  `json:"friendship,omitempty"`
}

// Friendships returns the viewer's friendship rows, cached under
// ("friendships").
func (s *Session) Friendships(ctx context.Context) ([]models.Friendship, error) {
	if _, err := s.requireViewer(); err != nil {
		return nil, err
	}
	rows, err := querycache.Fetch(ctx, s.cache, querycache.K(querycache.RootFriendships), s.api.Friendships)
	if err != nil {
		return nil, s.observe(err)
	}
	return rows, nil
}

func (s *Session) FriendshipList(ctx context.Context, f relationship.Filter, name string) ([]FriendshipEntry, error) {
	viewer, err := s.requireViewer()
	if err != nil {
		return nil, err
	}
	rows, err := s.Friendships(ctx)
	if err != nil {
		return nil, err
	}
	entries := relationship.Select(viewer.ID, rows, f, name)
	out := make([]FriendshipEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, FriendshipEntry{Entry: e, Busy: s.busy.IsBusy(friendshipKey(e.Friendship.ID))})
	}
	return out, nil
}

// target resolves the pair an action is about and its current label.
func (s *Session) target(ctx context.Context, viewer *models.User, req ActionRequest) (models.ID, *models.Friendship, relationship.Label, error) {
	rows, err := s.Friendships(ctx)
	if err != nil {
		return 0, nil, relationship.None, err
	}
	other := req.UserID
	if req.FriendshipID != 0 {
		var found *models.Friendship
		for i := range rows {
			if rows[i].ID == req.FriendshipID {
				found = &rows[i]
				break
			}
		}
		if found == nil || (found.SenderID != viewer.ID && found.ReceiverID != viewer.ID) {
			return 0, nil, relationship.None, fmt.Errorf("friendship %s: %w", req.FriendshipID, ErrNotFound)
		}
		if other != 0 && found.Other(viewer.ID) != other {
			return 0, nil, relationship.None, fmt.Errorf("friendship %s does not involve user %s: %w", req.FriendshipID, other, ErrNotFound)
		}
		other = found.Other(viewer.ID)
	}
	if other == 0 {
		return 0, nil, relationship.None, fmt.Errorf("action needs a user or friendship: %w", ErrNotFound)
	}
	if other == viewer.ID {
		return 0, nil, relationship.None, ErrSelf
	}
	label := relationship.LabelFor(viewer.ID, rows, other)
	var record *models.Friendship
	if f, ok := relationship.Find(viewer.ID, rows, other); ok {
		record = &f
	}
	return other, record, label, nil
}

// Act performs a relationship action. The action is checked against the
// cached label first; the entity stays busy until the backend answers. A
// refusal caused by the pair's state having moved on returns *StaleError
// with the refreshed label.
func (s *Session) Act(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	viewer, err := s.requireViewer()
	if err != nil {
		return nil, err
	}
	other, record, label, err := s.target(ctx, viewer, req)
	if err != nil {
		return nil, err
	}
	if err := relationship.Check(label, req.Action); err != nil {
		relationshipActions.WithLabelValues(req.Action.String(), "refused").Inc()
		return nil, err
	}

	busyKey := userKey(other)
	if record != nil {
		busyKey = friendshipKey(record.ID)
	}
	release, ok := s.busy.Acquire(busyKey)
	if !ok {
		relationshipActions.WithLabelValues(req.Action.String(), "busy").Inc()
		return nil, ErrBusy
	}
	defer release()

	result, err := s.dispatch(ctx, req.Action, other, record)
	if err != nil {
		err = s.refused(ctx, viewer, req.Action, other, err)
		outcome := "error"
		var stale *StaleError
		if errors.As(err, &stale) {
			outcome = "stale"
		}
		relationshipActions.WithLabelValues(req.Action.String(), outcome).Inc()
		return nil, err
	}
	s.cache.Apply(querycache.FriendshipChanged)
	relationshipActions.WithLabelValues(req.Action.String(), "ok").Inc()

	next, _ := relationship.Outcome(label, req.Action)
	s.log.Info("relationship action", "action", req.Action, "user_id", other, "label", next)
	return &ActionResult{Action: req.Action, UserID: other, Label: next, Friendship: result}, nil
}

func (s *Session) dispatch(ctx context.Context, a relationship.Action, other models.ID, record *models.Friendship) (*models.Friendship, error) {
	switch a {
	case relationship.SendRequest:
		return s.api.CreateFriendship(ctx, other)
	case relationship.Block:
		if record == nil {
			return s.api.BlockUser(ctx, other)
		}
		return s.api.ActFriendship(ctx, record.ID, backend.OpBlock)
	case relationship.Accept:
		return s.api.ActFriendship(ctx, record.ID, backend.OpAccept)
	case relationship.Reject:
		return s.api.ActFriendship(ctx, record.ID, backend.OpReject)
	case relationship.Unblock:
		return s.api.ActFriendship(ctx, record.ID, backend.OpUnblock)
	case relationship.Cancel, relationship.Unfriend:
		return nil, s.api.DeleteFriendship(ctx, record.ID)
	}
	return nil, fmt.Errorf("unhandled relationship action %s", a)
}

// refused handles a failed action. State mismatches refresh the friendship
// list so the caller sees the pair as it is now.
func (s *Session) refused(ctx context.Context, viewer *models.User, a relationship.Action, other models.ID, err error) error {
	switch backend.KindOf(err) {
	case backend.Conflict, backend.Validation, backend.NotFound:
		s.cache.Apply(querycache.FriendshipChanged)
		rows, ferr := s.Friendships(ctx)
		if ferr != nil {
			s.log.Warn("refresh after refused action failed", "error", ferr)
			return err
		}
		return &StaleError{Action: a, Label: relationship.LabelFor(viewer.ID, rows, other), Err: err}
	}
	return s.observe(err)
}

// UserProfile is another user's profile as the viewer may see it.
type UserProfile struct {
	User    *models.User          `json:"user"`
	Label   relationship.Label    `json:"label"`
	Actions []relationship.Action `json:"actions"`
	Busy    bool                  `json:"busy"`
}

// Profile loads user id. The viewer's own id returns ErrSelf; a profile the
// backend refuses returns ErrForbidden.
func (s *Session) Profile(ctx context.Context, id models.ID) (*UserProfile, error) {
	viewer, err := s.requireViewer()
	if err != nil {
		return nil, err
	}
	if id == viewer.ID {
		return nil, ErrSelf
	}
	// refetched on every visit; access may have changed with the friendship
	key := querycache.K(querycache.RootUser, id.String())
	s.cache.InvalidateKeys(key)
	u, err := querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*models.User, error) {
		return s.api.User(ctx, id)
	})
	switch {
	case backend.IsKind(err, backend.Forbidden):
		return nil, fmt.Errorf("user %s: %w", id, ErrForbidden)
	case backend.IsKind(err, backend.NotFound):
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	case err != nil:
		return nil, s.observe(err)
	}

	rows, err := s.Friendships(ctx)
	if err != nil {
		return nil, err
	}
	label := relationship.LabelFor(viewer.ID, rows, id)
	busy := s.busy.IsBusy(userKey(id))
	if f, ok := relationship.Find(viewer.ID, rows, id); ok {
		busy = busy || s.busy.IsBusy(friendshipKey(f.ID))
	}
	return &UserProfile{User: u, Label: label, Actions: relationship.Actions(label), Busy: busy}, nil
}
