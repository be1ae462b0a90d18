package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/maikmano/zentask/command"
	"github.com/maikmano/zentask/domain"
	"github.com/maikmano/zentask/session"
)

const postCommandMaxSize = 64 * 1024

// commandRequest is the envelope for one mutation in a batch. Type picks
// the operation; the remaining fields are read as that operation needs.
type commandRequest struct {
	Type        string           `json:"type"`
	ID          string           `json:"id,omitempty"`
	BoardID     string           `json:"boardId,omitempty"`
	ColumnID    string           `json:"columnId,omitempty"`
	Title       string           `json:"title,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	Description string           `json:"description,omitempty"`
	Status      string           `json:"status,omitempty"`
	Priority    string           `json:"priority,omitempty"`
	CreatedAt   int64            `json:"createdAt,omitempty"`
	Deadline    *int64           `json:"deadline,omitempty"`
	Tags        []domain.TaskTag `json:"tags,omitempty"`
	Content     string           `json:"content,omitempty"`
	Confirmed   bool             `json:"confirmed,omitempty"`
	DisplayName string           `json:"displayName,omitempty"`
	AvatarURL   string           `json:"avatarUrl,omitempty"`
	Theme       string           `json:"theme,omitempty"`
	View        string           `json:"view,omitempty"`
	NoticeID    string           `json:"noticeId,omitempty"`
}

type commandResult struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *Server) postCommands(c echo.Context) error {
	ctx := c.Request().Context()
	metrics, spanCtx := newCommandRequestMetrics(ctx, s.log)
	if spanCtx != nil {
		ctx = spanCtx
	}
	var err error
	defer func() {
		metrics.Log(c.Response().Status, err)
	}()

	lr := io.LimitReader(c.Request().Body, postCommandMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()

	cmds := make([]commandRequest, 0, 4)
	if decodeErr := dec.Decode(&cmds); decodeErr != nil {
		metrics.SetErrorStage("decode")
		err = c.String(http.StatusBadRequest, "invalid body")
		return err
	}
	metrics.SetCommandCount(len(cmds))

	results := make([]commandResult, len(cmds))
	for i, cmd := range cmds {
		results[i] = s.dispatch(ctx, cmd)
		if !results[i].OK {
			metrics.SetErrorStage("dispatch")
		}
	}
	err = c.JSON(http.StatusOK, results)
	return err
}

func (s *Server) dispatch(ctx context.Context, cmd commandRequest) commandResult {
	id, err := s.apply(ctx, cmd)
	if err != nil {
		if !isLocalRejection(err) {
			// remote write failures become a dismissible notice, the
			// renderer shows local rejections inline
			s.state.PushNotice(err.Error())
		}
		return commandResult{Error: err.Error()}
	}
	return commandResult{OK: true, ID: id}
}

func (s *Server) apply(ctx context.Context, cmd commandRequest) (string, error) {
	switch cmd.Type {
	case "createBoard":
		boardID, err := s.commands.CreateBoard(ctx, cmd.Title, cmd.Icon)
		if err != nil {
			return "", err
		}
		// the view switches only after the writes were acknowledged
		s.router.ShowBoard(boardID)
		return boardID, nil
	case "updateBoard":
		return cmd.ID, s.commands.UpdateBoard(ctx, cmd.ID, cmd.Title, cmd.Icon)
	case "deleteBoard":
		return cmd.ID, s.commands.DeleteBoard(ctx, cmd.ID, cmd.Confirmed)
	case "createColumn":
		return s.commands.CreateColumn(ctx, cmd.BoardID, cmd.Title)
	case "renameColumn":
		return cmd.ID, s.commands.RenameColumn(ctx, cmd.ID, cmd.Title)
	case "deleteColumn":
		return cmd.ID, s.commands.DeleteColumn(ctx, cmd.ID, cmd.Confirmed)
	case "saveTask":
		return s.commands.SaveTask(ctx, domain.Task{
			ID:          cmd.ID,
			BoardID:     cmd.BoardID,
			ColumnID:    cmd.ColumnID,
			Title:       cmd.Title,
			Description: cmd.Description,
			Status:      cmd.Status,
			Priority:    cmd.Priority,
			CreatedAt:   cmd.CreatedAt,
			Deadline:    cmd.Deadline,
			Tags:        cmd.Tags,
		})
	case "toggleTag":
		if len(cmd.Tags) != 1 {
			return "", errBadTagToggle
		}
		return cmd.ID, s.commands.ToggleTaskTag(ctx, cmd.ID, cmd.Tags[0])
	case "moveTask":
		return cmd.ID, s.commands.MoveTask(ctx, cmd.ID, cmd.ColumnID)
	case "deleteTask":
		return cmd.ID, s.commands.DeleteTask(ctx, cmd.ID, cmd.Confirmed)
	case "createNote":
		return s.commands.CreateNote(ctx)
	case "renameNote":
		return cmd.ID, s.commands.RenameNote(ctx, cmd.ID, cmd.Title)
	case "updateNoteContent":
		return cmd.ID, s.commands.UpdateNoteContent(ctx, cmd.ID, cmd.Content)
	case "deleteNote":
		return cmd.ID, s.commands.DeleteNote(ctx, cmd.ID, cmd.Confirmed)
	case "saveProfile":
		return "", s.commands.SaveProfile(ctx, domain.Profile{
			DisplayName: cmd.DisplayName,
			AvatarURL:   cmd.AvatarURL,
			Theme:       cmd.Theme,
		})
	case "setView":
		return "", s.setView(cmd)
	case "dismissNotice":
		s.state.DismissNotice(cmd.NoticeID)
		return cmd.NoticeID, nil
	default:
		return "", errUnknownCommand
	}
}

var (
	errUnknownCommand = errors.New("unknown command type")
	errUnknownView    = errors.New("unknown view")
	errBadTagToggle   = errors.New("toggleTag wants exactly one tag")
)

func (s *Server) setView(cmd commandRequest) error {
	switch session.ViewKind(cmd.View) {
	case session.ViewDashboard:
		s.router.ShowDashboard()
	case session.ViewNotes:
		s.router.ShowNotes()
	case session.ViewInsights:
		s.router.ShowInsights()
	case session.ViewBoard:
		s.router.ShowBoard(cmd.BoardID)
	default:
		return errUnknownView
	}
	return nil
}

// isLocalRejection reports whether the error was raised before any write
// was issued.
func isLocalRejection(err error) bool {
	return errors.Is(err, command.ErrTitleRequired) ||
		errors.Is(err, command.ErrConfirmationRequired) ||
		errors.Is(err, command.ErrNotSignedIn) ||
		errors.Is(err, command.ErrTaskNotFound) ||
		errors.Is(err, errUnknownCommand) ||
		errors.Is(err, errUnknownView) ||
		errors.Is(err, errBadTagToggle)
}
