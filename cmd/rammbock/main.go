// Command rammbock is a sample driver over the harness: it stands in
// for "the surrounding test runner" spec.md places out of scope
// (SPEC_FULL.md §3), giving the library a runnable demonstration
// surface. It is not itself a test runner — it only proves the builder,
// transport, and keyword packages compose the way a real one would
// drive them.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kvemir/rammbock/internal/binutil"
	"github.com/kvemir/rammbock/internal/builder"
	"github.com/kvemir/rammbock/internal/config"
	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/keywords"
	"github.com/kvemir/rammbock/internal/logging"
	"github.com/kvemir/rammbock/internal/transport"
)

func main() {
	cfg := config.Default()
	var session *builder.Session

	app := &cli.App{
		Name:  "rammbock",
		Usage: "declarative binary-protocol test harness",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "loglevel", Value: cfg.LogLevel, Usage: "debug, info, warn, error"},
			&cli.StringFlag{Name: "network", Value: cfg.Network, Usage: "tcp (serve rejects udp)"},
			&cli.IntFlag{Name: "registry-size", Value: cfg.RegistrySize, Usage: "bound on protocol/message/client/server caches"},
		},
		Before: func(c *cli.Context) error {
			cfg.LogLevel = c.String("loglevel")
			cfg.Network = c.String("network")
			cfg.RegistrySize = c.Int("registry-size")
			session = builder.New(logging.New(cfg.LogLevel), cfg.RegistrySize)
			return nil
		},
		Commands: []*cli.Command{
			demoCommand(&session),
			serveCommand(&session, cfg),
			keywordsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// demoCommand builds the S1 scenario from spec.md §8 end to end through
// the builder session — a protocol with a header length field and a
// PDU, a message with two payload fields — and prints the encoded
// message's repr, proving the whole definition/encode path works from
// the command line.
func demoCommand(session **builder.Session) *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "define a sample protocol and message, encode it, and print the result",
		Action: func(c *cli.Context) error {
			s := *session

			if err := s.StartProtocol("demo"); err != nil {
				return err
			}
			msgID, err := field.NewUInt(2, "msgId", 5, 0)
			if err != nil {
				return err
			}
			if err := s.AddField(msgID); err != nil {
				return err
			}
			length, err := field.NewUInt(2, "length", nil, 0)
			if err != nil {
				return err
			}
			if err := s.AddField(length); err != nil {
				return err
			}
			pdu, err := field.NewPDU("length-4")
			if err != nil {
				return err
			}
			if err := s.AddField(pdu); err != nil {
				return err
			}
			if err := s.EndProtocol(); err != nil {
				return err
			}

			if err := s.NewMessage("FooRequest", "demo", nil); err != nil {
				return err
			}
			field1, err := field.NewUInt(2, "field_1", 1, 0)
			if err != nil {
				return err
			}
			if err := s.AddField(field1); err != nil {
				return err
			}
			field2, err := field.NewUInt(2, "field_2", 2, 0)
			if err != nil {
				return err
			}
			if err := s.AddField(field2); err != nil {
				return err
			}

			msg, err := s.Encode()
			if err != nil {
				return err
			}
			fmt.Println(msg.Repr())
			fmt.Println("raw:", binutil.BinToHex(msg.Raw()))
			return nil
		},
	}
}

// serveCommand starts a transport.Server, accepts one connection, and
// echoes back whatever raw bytes it receives — demonstrating the
// transport collaborator's accept/raw-send/raw-receive contract
// (spec.md §6, SPEC_FULL.md §4 item 4) independent of any message
// template.
func serveCommand(session **builder.Session, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "listen for one connection and echo back whatever it sends",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Value: cfg.ListenAddr, Usage: "address to listen on"},
			&cli.DurationFlag{Name: "accept-timeout", Value: 30 * time.Second},
		},
		Action: func(c *cli.Context) error {
			s := *session
			srv, err := transport.Listen(cfg.Network, c.String("listen"), "", s.Logger())
			if err != nil {
				return err
			}
			defer srv.Close()
			s.RegisterServer(srv.Alias(), srv)

			ctx := context.Background()
			srv.Serve(ctx)

			conn, err := srv.AcceptConnection("", c.Duration("accept-timeout"))
			if err != nil {
				return err
			}
			fmt.Printf("accepted connection %q on %s\n", conn.Alias(), srv.Addr())

			data, err := conn.ReceiveRaw(4096, c.Duration("accept-timeout"))
			if err != nil {
				return err
			}
			fmt.Println("received:", binutil.BinToHex(data))
			return conn.Send(data)
		},
	}
}

func keywordsCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse-keywords",
		Usage:     "parse key:value / key=value tokens per spec.md §6 and print the split",
		ArgsUsage: "TOKEN...",
		Action: func(c *cli.Context) error {
			parsed, err := keywords.Parse(c.Args().Slice())
			if err != nil {
				return err
			}
			fmt.Println("fields:", parsed.Fields)
			fmt.Println("header:", parsed.HeaderFields)
			fmt.Println("transport:", parsed.Transport)
			return nil
		},
	}
}
