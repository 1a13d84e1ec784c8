package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/greendental/backend/config"
	"github.com/greendental/backend/internal/flows"
	"github.com/greendental/backend/internal/pkg/flow"
	"github.com/greendental/backend/internal/pkg/llm"
	"github.com/greendental/backend/internal/service"
)

// runtimeBuilder 根据配置文件构建运行时，测试中替换为假模型
type runtimeBuilder func(ctx context.Context, configPath string) (*flow.Runtime, error)

func main() {
	defer klog.Flush()

	if err := newApp(buildRuntime, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(build runtimeBuilder, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "flowctl",
		Usage:     "List and run the dental assistant flows from a terminal",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the config file",
				Value:   "config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List available flows",
				Action: listFlows,
			},
			{
				Name:      "run",
				Usage:     "Run a flow with JSON input and print the output",
				ArgsUsage: "<flow>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Flow input as a JSON object",
					},
					&cli.StringFlag{
						Name:    "input-file",
						Aliases: []string{"f"},
						Usage:   "Read flow input from a JSON file",
					},
				},
				Action: func(c *cli.Context) error {
					return runFlow(c, build)
				},
			},
		},
	}
}

func listFlows(c *cli.Context) error {
	registry, err := flows.NewRegistry()
	if err != nil {
		return err
	}
	for _, info := range registry.List() {
		kind := "text"
		if info.Visual {
			kind = "image"
		}
		fmt.Fprintf(c.App.Writer, "%-28s %-6s %s\n", info.Name, kind, info.Title)
	}
	return nil
}

func runFlow(c *cli.Context, build runtimeBuilder) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("flow name is required")
	}

	raw, err := readInput(c)
	if err != nil {
		return err
	}

	registry, err := flows.NewRegistry()
	if err != nil {
		return err
	}
	runtime, err := build(c.Context, c.String("config"))
	if err != nil {
		return err
	}

	run, err := service.NewFlowService(registry, runtime, nil).Invoke(c.Context, name, raw)
	if err != nil {
		if verr, ok := flow.AsValidationError(err); ok {
			for _, f := range verr.Fields {
				fmt.Fprintf(c.App.ErrWriter, "  %s: %s\n", f.Field, f.Message)
			}
		}
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func readInput(c *cli.Context) ([]byte, error) {
	input, file := c.String("input"), c.String("input-file")
	switch {
	case input != "" && file != "":
		return nil, errors.New("use either --input or --input-file, not both")
	case input != "":
		return []byte(input), nil
	case file != "":
		return os.ReadFile(file)
	}
	return nil, errors.New("flow input is required (--input or --input-file)")
}

// buildRuntime 命令行不连接数据库，只使用配置文件中的模型
func buildRuntime(ctx context.Context, configPath string) (*flow.Runtime, error) {
	cfg := config.Load(configPath)

	runtime := &flow.Runtime{
		Env:     flows.NewEnv(cfg.Clinic),
		Timeout: cfg.Flow.Timeout,
	}
	if cfg.LLM.APIKey != "" {
		chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
		runtime.Text = chatModel
	}
	if cfg.Vision.APIKey != "" {
		vision, err := llm.NewGeminiChatModel(ctx, cfg.Vision)
		if err != nil {
			return nil, err
		}
		runtime.Vision = vision
	}
	return runtime, nil
}
