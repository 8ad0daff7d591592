// Command-line interface for the workflow builder: an interactive chat
// that runs the same pipeline as the HTTP API, in process.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"flowsmith/flowsmith/config"
	"flowsmith/flowsmith/controllers"
	"flowsmith/flowsmith/services/llm"
	"flowsmith/flowsmith/sources/psql"
	"flowsmith/flowsmith/sources/psql/dao"
	"flowsmith/flowsmith/utils/apperr"
	"flowsmith/flowsmith/utils/color"
	"flowsmith/flowsmith/utils/logging"
	"flowsmith/flowsmith/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const generateCommand = "/generate "

func main() {
	args := os.Args[1:]
	if len(args) < 1 || args[0] != "chat" {
		fmt.Println("flowsmith CLI usage:")
		fmt.Println("  flowsmith chat [session_id]   # chat with the workflow builder")
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()
	if err := cfg.Validate(); err != nil {
		fmt.Println(color.Error(err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := psql.NewDatabase(startCtx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		fmt.Println(color.Error(err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	adapter, err := llm.NewAdapterFromConfig(startCtx, cfg, nil)
	if err != nil {
		fmt.Println(color.Error(err.Error()))
		os.Exit(1)
	}
	ctrl := controllers.NewWorkflowController(adapter, dao.NewChatMessageDAO(db.DB), dao.NewWorkflowDAO(db.DB), nil, nil)

	sessionID := fmt.Sprintf("cli-%s", uuid.New().String()[:8])
	if len(args) > 1 {
		sessionID = args[1]
	}

	fmt.Println(color.Info("Session: " + sessionID))
	fmt.Println(color.Info("Describe an automation, or use /generate <description>. Type 'exit' to quit."))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Print(color.Prompt("flowsmith> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, generateCommand) {
			generate(ctx, ctrl, sessionID, strings.TrimSpace(strings.TrimPrefix(line, generateCommand)))
		} else {
			converse(ctx, ctrl, sessionID, line)
		}
		fmt.Println()
	}
}

func converse(ctx context.Context, ctrl *controllers.WorkflowController, sessionID, text string) {
	res, err := ctrl.Converse(ctx, sessionID, text)
	if err != nil {
		printError(err)
		return
	}
	fmt.Println(color.Reply(res.Response))
	if res.HasWorkflow {
		fmt.Println(color.Workflow(fmt.Sprintf("Workflow found: %s (%d nodes)",
			res.WorkflowJSON.NameOr(types.DefaultWorkflowName), len(res.WorkflowJSON.Nodes()))))
	}
}

func generate(ctx context.Context, ctrl *controllers.WorkflowController, sessionID, description string) {
	if description == "" {
		fmt.Println(color.Error("usage: /generate <description>"))
		return
	}
	res, err := ctrl.GenerateWorkflow(ctx, types.GenerateWorkflowRequest{Description: description, SessionID: sessionID})
	if err != nil {
		printError(err)
		return
	}
	fmt.Println(color.Reply(res.Explanation))
	fmt.Println(color.Workflow("Saved workflow " + res.WorkflowID))
}

func printError(err error) {
	fmt.Println(color.Error(fmt.Sprintf("[%s] %v", apperr.TypeOf(err), err)))
}
