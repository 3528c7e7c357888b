package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/palemoky/turn-party/internal/client"
	"github.com/palemoky/turn-party/internal/logger"
	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "turn-party-client",
		Usage:     "命令行调试客户端：每行输入 `<消息类型> [JSON payload]`",
		UsageText: `turn-party-client --name Alice` + "\n" + `> create_session {"game_type":"tictactoe"}`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://localhost:1780/ws", Usage: "服务器地址", Sources: cli.EnvVars("SERVER_URL")},
			&cli.StringFlag{Name: "token", Usage: "JWT 令牌", Sources: cli.EnvVars("PLAYER_TOKEN")},
			&cli.StringFlag{Name: "name", Usage: "昵称"},
			&cli.StringFlag{Name: "codec", Value: "json", Usage: "线路编码 (json/proto)"},
			&cli.BoolFlag{Name: "reconnect", Value: true, Usage: "断线自动重连"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	_ = logger.Init(logger.Config{Level: "warn", Output: os.Stderr})

	c := client.New(cmd.String("url"), client.Options{
		Token:         cmd.String("token"),
		Name:          cmd.String("name"),
		Format:        codec.ParseFormat(cmd.String("codec")),
		AutoReconnect: cmd.Bool("reconnect"),
	})
	out := cmd.Root().Writer
	c.OnMessage = func(msg *protocol.Message) { printMessage(out, msg) }
	c.OnReconnecting = func(attempt, total int) { fmt.Fprintf(out, "🔄 重连中 (%d/%d)\n", attempt, total) }

	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("连接失败: %w", err)
	}
	defer c.Close()

	lines := make(chan string)
	go scanLines(cmd.Root().Reader, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return errors.New("连接已关闭")
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			msg, err := parseLine(line)
			if err != nil {
				fmt.Fprintf(out, "⚠️ %v\n", err)
				continue
			}
			if msg == nil {
				continue
			}
			if err := c.SendMessage(msg); err != nil {
				fmt.Fprintf(out, "⚠️ 发送失败: %v\n", err)
			}
		}
	}
}

func scanLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

// parseLine 解析 `<类型> [payload]`，空行返回 nil
func parseLine(line string) (*protocol.Message, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	typ, payload, _ := strings.Cut(line, " ")
	payload = strings.TrimSpace(payload)

	msg := &protocol.Message{Type: protocol.MessageType(typ)}
	if payload != "" {
		if !json.Valid([]byte(payload)) {
			return nil, fmt.Errorf("payload 不是合法的 JSON: %s", payload)
		}
		msg.Payload = json.RawMessage(payload)
	}
	return msg, nil
}

func printMessage(w io.Writer, msg *protocol.Message) {
	if len(msg.Payload) == 0 {
		fmt.Fprintf(w, "← %s\n", msg.Type)
		return
	}
	fmt.Fprintf(w, "← %s %s\n", msg.Type, msg.Payload)
}
