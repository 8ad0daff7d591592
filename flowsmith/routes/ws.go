package routes

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"flowsmith/flowsmith/controllers"
	"flowsmith/flowsmith/utils/apperr"
	"flowsmith/flowsmith/utils/logging"
	"flowsmith/flowsmith/utils/types"
	"flowsmith/flowsmith/utils/validation"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// WorkflowSocket serves chat and generate requests over one websocket.
// Each inbound frame gets exactly one reply frame carrying the same payload
// the REST route would return, or an error frame.
//
// Cross origin handshakes are accepted only from allowedOrigins, the same
// list CORS uses. Same host requests are always accepted.
func WorkflowSocket(ctrl *controllers.WorkflowController, allowedOrigins []string) http.HandlerFunc {
	opts := &websocket.AcceptOptions{OriginPatterns: originPatterns(allowedOrigins)}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			logging.AppLogger.Info("Websocket handshake rejected",
				zap.String("origin", r.Header.Get("Origin")),
				zap.Error(err),
			)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		for {
			var in types.WSFrame
			if err := wsjson.Read(ctx, conn, &in); err != nil {
				status := websocket.CloseStatus(err)
				if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
					logging.AppLogger.Info("Websocket closed", zap.Error(err))
				}
				return
			}
			if err := wsjson.Write(ctx, conn, dispatch(ctx, ctrl, in)); err != nil {
				return
			}
		}
	}
}

// originPatterns turns CORS origins such as "https://app.example.com" into
// the host patterns websocket.Accept matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if strings.Contains(o, "://") {
			if u, err := url.Parse(o); err == nil && u.Host != "" {
				o = u.Host
			}
		}
		patterns = append(patterns, o)
	}
	return patterns
}

func dispatch(ctx context.Context, ctrl *controllers.WorkflowController, in types.WSFrame) types.WSFrame {
	var (
		data any
		err  error
	)
	switch in.Type {
	case types.WSFrameChat:
		req := types.ChatRequest{Message: in.Message, SessionID: in.SessionID}
		if err = validation.Struct(req); err == nil {
			data, err = ctrl.Converse(ctx, req.SessionID, req.Message)
		}
	case types.WSFrameGenerate:
		req := types.GenerateWorkflowRequest{
			Description:    in.Description,
			SessionID:      in.SessionID,
			IdempotencyKey: in.IdempotencyKey,
		}
		if err = validation.Struct(req); err == nil {
			data, err = ctrl.GenerateWorkflow(ctx, req)
		}
	default:
		err = apperr.New(apperr.ErrValidation, "unknown frame type "+in.Type)
	}

	if err != nil {
		if !errors.Is(err, apperr.ErrValidation) {
			logging.ErrorLogger.Error("Websocket request failed", zap.String("type", in.Type), zap.Error(err))
		}
		return types.WSFrame{
			Type:      types.WSFrameError,
			SessionID: in.SessionID,
			Error:     &types.ErrorResponse{Detail: err.Error(), ErrorType: string(apperr.TypeOf(err))},
		}
	}
	return types.WSFrame{Type: in.Type, SessionID: in.SessionID, Data: data}
}
