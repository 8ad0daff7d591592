package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"flowsmith/flowsmith/controllers"
	"flowsmith/flowsmith/utils/apperr"
	httputils "flowsmith/flowsmith/utils/http"
	"flowsmith/flowsmith/utils/logging"
	"flowsmith/flowsmith/utils/types"
	"flowsmith/flowsmith/utils/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestTimeout bounds every REST call, model round trip included.
const RequestTimeout = 180 * time.Second

const rootMessage = "n8n Workflow Builder API - Ready to generate workflows!"

// handleJSON runs handler and writes its result, or the error body with
// the status derived from the error kind. Server side failures get
// errPrefix in front of their detail.
func handleJSON(errPrefix string, handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, r, errPrefix, err)
			return
		}
		httputils.WriteJSON(w, status, res)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, errPrefix string, err error) {
	status := apperr.Status(err)
	detail := err.Error()
	if status >= http.StatusInternalServerError {
		logging.ErrorLogger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		if errPrefix != "" {
			detail = errPrefix + ": " + detail
		}
	}
	httputils.WriteJSON(w, status, types.ErrorResponse{
		Detail:    detail,
		ErrorType: string(apperr.TypeOf(err)),
	})
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.ErrValidation, "invalid JSON body", err)
	}
	return validation.Struct(dst)
}

// APIRoutes serves everything under /api. origins gates the websocket
// handshake.
func APIRoutes(wf *controllers.WorkflowController, st *controllers.StatusController, origins []string) chi.Router {
	r := chi.NewRouter()

	// websocket sessions outlive the REST timeout
	r.Get("/ws", WorkflowSocket(wf, origins))

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(RequestTimeout))

		gr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			httputils.WriteJSON(w, http.StatusOK, map[string]string{"message": rootMessage})
		})

		gr.Post("/status", handleJSON("", func(r *http.Request) (any, int, error) {
			var req types.StatusCheckCreate
			if err := decode(r, &req); err != nil {
				return nil, 0, err
			}
			check, err := st.CreateStatusCheck(r.Context(), req.ClientName)
			if err != nil {
				return nil, 0, err
			}
			return check, http.StatusOK, nil
		}))

		gr.Get("/status", handleJSON("", func(r *http.Request) (any, int, error) {
			checks, err := st.ListStatusChecks(r.Context())
			if err != nil {
				return nil, 0, err
			}
			return checks, http.StatusOK, nil
		}))

		gr.Post("/chat", handleJSON("Chat error", func(r *http.Request) (any, int, error) {
			var req types.ChatRequest
			if err := decode(r, &req); err != nil {
				return nil, 0, err
			}
			res, err := wf.Converse(r.Context(), req.SessionID, req.Message)
			if err != nil {
				return nil, 0, err
			}
			return res, http.StatusOK, nil
		}))

		gr.Post("/generate-workflow", handleJSON("Workflow generation error", func(r *http.Request) (any, int, error) {
			var req types.GenerateWorkflowRequest
			if err := decode(r, &req); err != nil {
				return nil, 0, err
			}
			res, err := wf.GenerateWorkflow(r.Context(), req)
			if err != nil {
				return nil, 0, err
			}
			return res, http.StatusOK, nil
		}))

		gr.Post("/workflows", handleJSON("Save workflow error", func(r *http.Request) (any, int, error) {
			var req types.SaveWorkflowRequest
			if err := decode(r, &req); err != nil {
				return nil, 0, err
			}
			w, err := wf.SaveDraft(r.Context(), req)
			if err != nil {
				return nil, 0, err
			}
			return w, http.StatusOK, nil
		}))

		gr.Get("/workflows/{session_id}", handleJSON("Get workflows error", func(r *http.Request) (any, int, error) {
			workflows, err := wf.ListWorkflows(r.Context(), chi.URLParam(r, "session_id"))
			if err != nil {
				return nil, 0, err
			}
			return workflows, http.StatusOK, nil
		}))

		gr.Get("/workflows/{session_id}/{workflow_id}/download", func(w http.ResponseWriter, r *http.Request) {
			body, contentType, filename, err := wf.ExportWorkflow(r.Context(),
				chi.URLParam(r, "session_id"),
				chi.URLParam(r, "workflow_id"),
				r.URL.Query().Get("format"),
			)
			if err != nil {
				writeError(w, r, "Download workflow error", err)
				return
			}
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		})

		gr.Get("/chat-history/{session_id}", handleJSON("Get chat history error", func(r *http.Request) (any, int, error) {
			messages, err := wf.ChatHistory(r.Context(), chi.URLParam(r, "session_id"))
			if err != nil {
				return nil, 0, err
			}
			return messages, http.StatusOK, nil
		}))
	})
	return r
}
