package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"autodev-agent/handler"
	"autodev-agent/internal/aifunc"
	"autodev-agent/internal/artifacts"
	"autodev-agent/internal/config"
	"autodev-agent/internal/domain"
	"autodev-agent/internal/integrations/openai"
	"autodev-agent/internal/integrations/paramstore"
	"autodev-agent/internal/logging"
	"autodev-agent/internal/render"
	"autodev-agent/internal/repository"
	"autodev-agent/internal/usecase"
	"autodev-agent/internal/webcheck"
)

type globalFlags struct {
	configPath string
	envFile    string
}

type runFlags struct {
	input        string
	position     string
	operation    string
	decode       bool
	withTemplate bool
	saveCode     bool
	saveAPI      bool
}

// lambdaRuntimeEnv is set by the Lambda runtime, which starts the binary
// without arguments.
const lambdaRuntimeEnv = "AWS_LAMBDA_RUNTIME_API"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(commandArgs(os.Args[1:], os.Getenv))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:           "autodev",
		Short:         "Autonomous developer agent: templated LLM function calls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")

	rootCmd.AddCommand(newRunCmd(&g), newCheckURLCmd(), newFunctionsCmd(), newTasksCmd(&g), newLambdaCmd(&g))
	return rootCmd
}

// commandArgs defaults to the lambda command when running inside the Lambda
// runtime with no arguments.
func commandArgs(args []string, getenv func(string) string) []string {
	if len(args) == 0 && getenv(lambdaRuntimeEnv) != "" {
		return []string{"lambda"}
	}
	return args
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run <function>",
		Short: "Run an AI function against the input and print the model output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunction(cmd.Context(), cmd.OutOrStdout(), g, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.input, "input", "", "Input passed to the AI function (\"-\" reads stdin)")
	cmd.Flags().StringVar(&f.position, "agent", "Managing Agent", "Agent position shown in status output")
	cmd.Flags().StringVar(&f.operation, "operation", "Running AI function", "Agent operation shown in status output")
	cmd.Flags().BoolVar(&f.decode, "decode", false, "Decode the response into the function's JSON structure and pretty-print it")
	cmd.Flags().BoolVar(&f.withTemplate, "with-template", false, "Append the code template to the input")
	cmd.Flags().BoolVar(&f.saveCode, "save-code", false, "Write the response to the backend main file")
	cmd.Flags().BoolVar(&f.saveAPI, "save-api", false, "Write the (JSON) response to the API schema file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newCheckURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-url <url>",
		Short: "Print the HTTP status code returned by a GET to url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := webcheck.CheckStatusCode(cmd.Context(), nil, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), code)
			return err
		},
	}
}

func newFunctionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the available AI functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range aifunc.Names() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// taskLister reads the task log of one agent position.
type taskLister interface {
	ListTasks(ctx context.Context, position string, limit int) ([]domain.TaskRecord, error)
}

func newTasksCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tasks <agent-position>",
		Short: "List recorded task requests for an agent position, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, false)
			if err != nil {
				return err
			}
			if cfg.State.Table == "" {
				return errors.New("no task log configured (set state.table or AUTODEV_STATE_TABLE)")
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("load AWS config: %w", err)
			}
			repo, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.State.Table)
			if err != nil {
				return fmt.Errorf("create task log: %w", err)
			}
			return printTasks(cmd.Context(), cmd.OutOrStdout(), repo, args[0], limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records (0 for all)")
	return cmd
}

func printTasks(ctx context.Context, out io.Writer, tasks taskLister, position string, limit int) error {
	recs, err := tasks.ListTasks(ctx, position, limit)
	if err != nil {
		return err
	}
	render.NewPrinter(out).PrintTasks(recs)
	return nil
}

func newLambdaCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve AI function requests as an AWS Lambda behind API Gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g, true)
			if err != nil {
				return err
			}
			svc, _, err := buildServices(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			h, err := handler.NewHandler(svc)
			if err != nil {
				return err
			}
			lambda.Start(h.Handle)
			return nil
		},
	}
}

func loadConfig(g *globalFlags, jsonLogs bool) (*config.Config, error) {
	cfg, err := config.Load(g.configPath, g.envFile)
	if err != nil {
		return nil, err
	}
	format := cfg.Log.Format
	if jsonLogs {
		format = "json"
	}
	logging.Setup(os.Stderr, cfg.Log.Level, format)

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		slog.Warn("config warning", "warning", w)
	}
	return cfg, nil
}

// buildServices wires the OpenAI client, the optional AWS-backed key source
// and task log, and the artifact store.
func buildServices(ctx context.Context, cfg *config.Config, reporter usecase.Reporter) (*usecase.TaskService, *artifacts.Store, error) {
	opts := []openai.Option{
		openai.WithAPIKey(cfg.OpenAI.APIKey),
		openai.WithOrganization(cfg.OpenAI.Organization),
		openai.WithModel(cfg.OpenAI.Model),
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithTemperature(cfg.OpenAI.Temperature),
	}
	if cfg.OpenAI.Timeout > 0 {
		opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: cfg.OpenAI.Timeout}))
	}

	taskOpts := []usecase.TaskOption{usecase.WithLogger(slog.Default())}
	if reporter != nil {
		taskOpts = append(taskOpts, usecase.WithReporter(reporter))
	}

	if cfg.UsesAWS() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config: %w", err)
		}
		if cfg.Params.Prefix != "" {
			ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg), cfg.Params.Prefix)
			if err != nil {
				return nil, nil, fmt.Errorf("create paramstore client: %w", err)
			}
			opts = append(opts, openai.WithParamStore(ps))
		}
		if cfg.State.Table != "" {
			repo, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.State.Table)
			if err != nil {
				return nil, nil, fmt.Errorf("create task log: %w", err)
			}
			taskOpts = append(taskOpts, usecase.WithRecorder(repo))
		}
	}

	client, err := openai.NewClient(opts...)
	if err != nil {
		return nil, nil, err
	}
	svc, err := usecase.NewTaskService(client, taskOpts...)
	if err != nil {
		return nil, nil, err
	}

	store := artifacts.New(nil, artifacts.Paths{
		CodeTemplate: cfg.Artifacts.CodeTemplate,
		BackendMain:  cfg.Artifacts.BackendMain,
		APISchema:    cfg.Artifacts.APISchema,
	})
	return svc, store, nil
}

func runFunction(ctx context.Context, out io.Writer, g *globalFlags, name string, f runFlags) error {
	fn, ok := aifunc.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown AI function %q (available: %s)", name, strings.Join(aifunc.Names(), ", "))
	}
	if f.saveAPI {
		// The schema file must always hold valid JSON.
		f.decode = true
	}

	cfg, err := loadConfig(g, false)
	if err != nil {
		return err
	}
	svc, store, err := buildServices(ctx, cfg, render.NewPrinter(os.Stderr))
	if err != nil {
		return err
	}

	input, err := readInput(f.input)
	if err != nil {
		return err
	}
	if f.withTemplate {
		tmpl, err := store.ReadCodeTemplate()
		if err != nil {
			return err
		}
		input = fmt.Sprintf("PROJECT_DESCRIPTION: %s\nCODE_TEMPLATE: %s", input, tmpl)
	}

	in := usecase.TaskInput{
		Context:        input,
		AgentPosition:  f.position,
		AgentOperation: f.operation,
		FuncName:       name,
		Func:           fn,
	}

	var result string
	if f.decode {
		v, err := svc.RequestTyped(ctx, in)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("format response: %w", err)
		}
		result = string(b)
	} else {
		result, err = svc.Request(ctx, in)
		if err != nil {
			return err
		}
	}

	if f.saveCode {
		if err := store.SaveBackendCode(result); err != nil {
			return err
		}
		slog.Info("saved backend code", "path", store.Paths().BackendMain)
	}
	if f.saveAPI {
		if err := store.SaveAPIEndpoints(result); err != nil {
			return err
		}
		slog.Info("saved api endpoints", "path", store.Paths().APISchema)
	}

	_, err = fmt.Fprintln(out, result)
	return err
}

func readInput(v string) (string, error) {
	if v != "-" {
		return v, nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("stdin input is empty")
	}
	return s, nil
}
