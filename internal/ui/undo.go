package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"eatlog/internal/journal"
	"eatlog/internal/model"
)

// undoAction reverses one edit or favorite toggle. Creates, deletes and
// conversions move photo blobs and are not undoable.
type undoAction struct {
	label string
	undo  func() error
	redo  func() error
}

type undoAppliedMsg struct {
	err       error
	action    undoAction
	direction string // undo, redo
}

func (m *Model) pushUndoAction(action undoAction) {
	m.undoStack = append(m.undoStack, action)
	m.redoStack = nil
}

func (m *Model) undoCmd() tea.Cmd {
	if len(m.undoStack) == 0 {
		return nil
	}
	action := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	return func() tea.Msg {
		err := action.undo()
		return undoAppliedMsg{err: err, action: action, direction: "undo"}
	}
}

func (m *Model) redoCmd() tea.Cmd {
	if len(m.redoStack) == 0 {
		return nil
	}
	action := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	return func() tea.Msg {
		err := action.redo()
		return undoAppliedMsg{err: err, action: action, direction: "redo"}
	}
}

func (m *Model) buildEditAction(msg model.ExperienceSavedMsg) *undoAction {
	if msg.Operation != "update" || msg.Before == nil || msg.After == nil {
		return nil
	}
	svc, actor := m.journal, m.actor
	before, after := msg.Before, msg.After
	return &undoAction{
		label: fmt.Sprintf("edit of %s", after.Name),
		undo:  func() error { return restoreSnapshot(svc, actor, before) },
		redo:  func() error { return restoreSnapshot(svc, actor, after) },
	}
}

func (m *Model) buildFavoriteAction(msg model.FavoriteToggledMsg) undoAction {
	svc, actor := m.journal, m.actor
	return undoAction{
		label: fmt.Sprintf("favorite on %s", msg.Name),
		undo: func() error {
			return svc.SetFavorite(context.Background(), actor, msg.ID, !msg.Favorite)
		},
		redo: func() error {
			return svc.SetFavorite(context.Background(), actor, msg.ID, msg.Favorite)
		},
	}
}

// restoreSnapshot rewrites the fields, place and details of an experience
// to those of snapshot. It edits on top of the current version, so any
// change made since then is overwritten. Photos and favorite are left alone.
func restoreSnapshot(svc journalService, actor journal.Actor, snapshot *model.Experience) error {
	ctx := context.Background()
	current, err := svc.Get(ctx, actor, snapshot.ID)
	if err != nil {
		return err
	}

	in := journal.EditFrom(snapshot)
	in.Version = current.Version
	in.Favorite = current.Favorite
	in.Details = snapshot.Details
	if p := snapshot.Place; p != nil && snapshot.Type == model.TypeRestaurant {
		in.Place = &journal.PlaceInput{
			Name:       p.Name,
			Cuisine:    p.Cuisine,
			PriceRange: p.PriceRange,
			Address:    p.Address,
			Website:    p.Website,
		}
	}
	_, err = svc.Update(ctx, actor, in)
	return err
}

func (m *Model) applyUndoResult(msg undoAppliedMsg) tea.Cmd {
	if msg.err != nil {
		m.error = fmt.Sprintf("%s failed: %v", msg.direction, msg.err)
		return m.reloadCmd()
	}

	if msg.direction == "undo" {
		m.redoStack = append(m.redoStack, msg.action)
		m.info = "Undid " + msg.action.label
	} else {
		m.undoStack = append(m.undoStack, msg.action)
		m.info = "Redid " + msg.action.label
	}
	m.error = ""
	return m.reloadCmd()
}
